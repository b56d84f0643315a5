package sim

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fastConfig returns a valid config with millisecond-scale timings so a run
// generates a few dozen requests and drains quickly.
func fastConfig(duration time.Duration) Config {
	return Config{
		Duration:             duration,
		SplitPercentage:      50,
		PoolSize:             2,
		Tick:                 time.Millisecond,
		RegularProcessing:    DurationRange{Min: 0, Max: time.Millisecond},
		AdditionalProcessing: DurationRange{Min: 0, Max: 2 * time.Millisecond},
		Topology:             TopologySingle,
		Seed:                 42,
	}
}

// runSimulator builds and runs a simulator, failing the test on any error.
func runSimulator(t *testing.T, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, opts...)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return s
}

// idCounts counts how often each request id appears in records.
func idCounts(records []Request) map[int64]int {
	counts := make(map[int64]int, len(records))
	for _, r := range records {
		counts[r.ID]++
	}
	return counts
}

// assertConservation checks that every generated request was processed exactly
// once by each stage its class requires and by no other stage.
func assertConservation(t *testing.T, s *Simulator) {
	t.Helper()
	generated := s.GeneratedRequests()
	regular := idCounts(s.ProcessedRequests(StageRegular))
	additional := idCounts(s.ProcessedRequests(StageAdditionalService))

	wantAdditional := 0
	for _, g := range generated {
		if regular[g.ID] != 1 {
			t.Errorf("request %d processed %d times by the regular stage, want 1", g.ID, regular[g.ID])
		}
		want := 0
		if g.Class == ClassAdditionalService {
			want = 1
			wantAdditional++
		}
		if additional[g.ID] != want {
			t.Errorf("request %d (%s) processed %d times by the additional stage, want %d", g.ID, g.Class, additional[g.ID], want)
		}
	}
	if len(regular) != len(generated) {
		t.Errorf("regular stage processed %d distinct requests, generated %d", len(regular), len(generated))
	}
	if len(additional) != wantAdditional {
		t.Errorf("additional stage processed %d distinct requests, want %d", len(additional), wantAdditional)
	}
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) OnEvent(e Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

func (o *recordingObserver) count(kind EventKind, stage Stage) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Kind == kind && e.Stage == stage {
			n++
		}
	}
	return n
}

// steppingClock advances by step on every Now call.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}
