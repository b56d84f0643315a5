// sim/simulator.go
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyRun is returned by Run on every call after the first.
	ErrAlreadyRun = errors.New("simulation already run")
	// ErrNotFinished is returned by Stats before Run has returned.
	ErrNotFinished = errors.New("simulation has not finished")
)

const (
	stateIdle int32 = iota
	stateRunning
	stateFinished
)

// Simulator holds the queues, pools, generators and logs of one run.
// A Simulator runs exactly once; its logs are read after Run returns.
type Simulator struct {
	RunID  string
	Config Config

	clock Clock
	rng   *PartitionedRNG
	ids   IDGenerator

	// RegularQ feeds the Regular pool; AdditionalQ feeds the AdditionalService pool.
	RegularQ    *StageQueue
	AdditionalQ *StageQueue

	generated     RequestLog
	regularLog    RequestLog
	additionalLog RequestLog

	observers observerSet

	state      atomic.Int32
	startedAt  time.Time
	finishedAt time.Time
	statsOnce  sync.Once
	stats      Stats
}

// Option customizes a Simulator at construction.
type Option func(*Simulator)

// WithClock replaces the clock used for request timestamps.
func WithClock(c Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithObserver subscribes o to the run's events.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// NewSimulator validates cfg and prepares a run. Nothing starts until Run.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Topology == "" {
		cfg.Topology = TopologySingle
	}
	s := &Simulator{
		RunID:       uuid.NewString(),
		Config:      cfg,
		clock:       RealClock{},
		rng:         NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		RegularQ:    NewStageQueue(StageRegular),
		AdditionalQ: NewStageQueue(StageAdditionalService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe adds an observer. It must be called before Run; later calls are ignored.
func (s *Simulator) Subscribe(o Observer) {
	if o == nil {
		return
	}
	if s.state.Load() != stateIdle {
		logrus.Warnf("run %s: Subscribe called after Run started; observer ignored", s.RunID)
		return
	}
	s.observers = append(s.observers, o)
}

// Run executes the simulation: generators emit until the run context
// (Config.Duration, or ctx if it is cancelled first) is done, then each stage
// drains its queue and stops. Run returns once every generator and worker has
// stopped, with the first unexpected task error if any.
func (s *Simulator) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		return ErrAlreadyRun
	}
	cfg := s.Config

	generators := newGenerators(cfg, s.rng, &s.ids, s.clock, &s.generated, s.RegularQ, s.observers)
	regularPool := newWorkerPool(StageRegular, cfg.PoolSizeFor(StageRegular), cfg.RegularProcessing,
		s.RegularQ, s.AdditionalQ, &s.regularLog, s.clock, s.rng, s.observers)
	additionalPool := newWorkerPool(StageAdditionalService, cfg.PoolSizeFor(StageAdditionalService), cfg.AdditionalProcessing,
		s.AdditionalQ, nil, &s.additionalLog, s.clock, s.rng, s.observers)

	s.startedAt = s.clock.Now()
	runCtx, cancel := NewRunContext(ctx, s.clock, cfg.Duration)
	defer cancel()

	logrus.Infof("run %s: starting %d generator(s), %d regular and %d additional-service workers, duration=%v, split=%v%%",
		s.RunID, len(generators), regularPool.Size(), additionalPool.Size(), cfg.Duration, cfg.SplitPercentage)

	// Drain chain: the Regular queue closes once every generator has returned,
	// the AdditionalService queue once every Regular worker has stopped.
	var all errgroup.Group
	all.Go(func() error {
		defer s.RegularQ.Close()
		var gens errgroup.Group
		for _, g := range generators {
			gens.Go(guard(fmt.Sprintf("generator %d", g.ID), func() error { return g.Run(runCtx) }))
		}
		return gens.Wait()
	})
	all.Go(func() error {
		defer s.AdditionalQ.Close()
		return regularPool.Run()
	})
	all.Go(additionalPool.Run)

	err := all.Wait()

	s.finishedAt = s.clock.Now()
	s.state.Store(stateFinished)
	if err != nil {
		logrus.Errorf("run %s: finished with error: %v", s.RunID, err)
		return fmt.Errorf("run %s: %w", s.RunID, err)
	}
	logrus.Infof("run %s: finished after %v, generated=%d", s.RunID, s.finishedAt.Sub(s.startedAt), s.generated.Len())
	return nil
}

// Finished reports whether Run has returned.
func (s *Simulator) Finished() bool {
	return s.state.Load() == stateFinished
}

// GeneratedRequests returns a snapshot of every generated request, as it was
// when generated. After Run returns, repeated calls return equal slices.
func (s *Simulator) GeneratedRequests() []Request {
	return s.generated.Snapshot()
}

// ProcessedRequests returns a snapshot of the requests processed by stage,
// as they were when that stage completed them. Unknown stages return nil.
func (s *Simulator) ProcessedRequests(stage Stage) []Request {
	switch stage {
	case StageRegular:
		return s.regularLog.Snapshot()
	case StageAdditionalService:
		return s.additionalLog.Snapshot()
	}
	return nil
}

// Stats aggregates the logs. It is computed once, on the first call after Run
// has returned; earlier calls return ErrNotFinished.
func (s *Simulator) Stats() (Stats, error) {
	if !s.Finished() {
		return Stats{}, ErrNotFinished
	}
	s.statsOnce.Do(func() {
		st := ComputeStats(s.GeneratedRequests(), s.ProcessedRequests(StageRegular),
			s.ProcessedRequests(StageAdditionalService), s.finishedAt.Sub(s.startedAt))
		st.RunID = s.RunID
		st.Regular.PeakQueueDepth = s.RegularQ.PeakLen()
		st.AdditionalService.PeakQueueDepth = s.AdditionalQ.PeakLen()
		s.stats = st
	})
	return s.stats, nil
}
