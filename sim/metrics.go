// Aggregates the request logs of a finished run into throughput and latency
// statistics for final reporting.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// StageStats summarizes one stage's processed log.
type StageStats struct {
	Processed      int           `json:"processed"`
	MeanLatency    time.Duration `json:"mean_latency_ns"` // CreatedAt -> this stage's completion
	P50Latency     time.Duration `json:"p50_latency_ns"`
	P90Latency     time.Duration `json:"p90_latency_ns"`
	P99Latency     time.Duration `json:"p99_latency_ns"`
	PeakQueueDepth int           `json:"peak_queue_depth"`
}

// Stats is the end-of-run report.
type Stats struct {
	RunID            string               `json:"run_id,omitempty"`
	Elapsed          time.Duration        `json:"elapsed_ns"`
	TotalGenerated   int                  `json:"total_generated"`
	GeneratedByClass map[RequestClass]int `json:"generated_by_class"`
	Completed        int                  `json:"completed"` // requests that finished their last stage
	ThroughputPerSec float64              `json:"throughput_per_sec"`

	Regular           StageStats `json:"regular"`
	AdditionalService StageStats `json:"additional_service"`
}

// ComputeStats aggregates the generated log and the two processed logs.
// It has no side effects and treats empty logs as zero counts and zero
// durations. elapsed is the run's wall-clock length, used for throughput.
func ComputeStats(generated, regular, additional []Request, elapsed time.Duration) Stats {
	s := Stats{
		Elapsed:        elapsed,
		TotalGenerated: len(generated),
		GeneratedByClass: map[RequestClass]int{
			ClassRegular:           0,
			ClassAdditionalService: 0,
		},
		Regular:           summarizeStage(regular, StageRegular),
		AdditionalService: summarizeStage(additional, StageAdditionalService),
	}
	for _, r := range generated {
		s.GeneratedByClass[r.Class]++
	}
	for _, r := range regular {
		if r.Class == ClassRegular {
			s.Completed++
		}
	}
	s.Completed += len(additional)
	if elapsed > 0 {
		s.ThroughputPerSec = float64(s.Completed) / elapsed.Seconds()
	}
	return s
}

func summarizeStage(records []Request, stage Stage) StageStats {
	lat := stageLatencies(records, stage)
	return StageStats{
		Processed:   len(records),
		MeanLatency: time.Duration(CalculateMean(lat)),
		P50Latency:  time.Duration(CalculatePercentile(lat, 50)),
		P90Latency:  time.Duration(CalculatePercentile(lat, 90)),
		P99Latency:  time.Duration(CalculatePercentile(lat, 99)),
	}
}

// Stage returns the summary for stage.
func (s Stats) Stage(stage Stage) StageStats {
	if stage == StageAdditionalService {
		return s.AdditionalService
	}
	return s.Regular
}

// Print writes a human-readable summary.
func (s Stats) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Statistics ===")
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID                     : %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Elapsed                    : %v\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Generated Requests         : %d\n", s.TotalGenerated)
	fmt.Fprintf(w, "  Regular                  : %d\n", s.GeneratedByClass[ClassRegular])
	fmt.Fprintf(w, "  Additional Service       : %d\n", s.GeneratedByClass[ClassAdditionalService])
	fmt.Fprintf(w, "Completed Requests         : %d\n", s.Completed)
	fmt.Fprintf(w, "Throughput                 : %.2f req/s\n", s.ThroughputPerSec)
	for _, stage := range Stages {
		st := s.Stage(stage)
		fmt.Fprintf(w, "--- Stage %s ---\n", stage)
		fmt.Fprintf(w, "Processed                  : %d\n", st.Processed)
		fmt.Fprintf(w, "Mean Latency               : %v\n", st.MeanLatency.Round(time.Millisecond))
		fmt.Fprintf(w, "P50 / P90 / P99 Latency    : %v / %v / %v\n",
			st.P50Latency.Round(time.Millisecond), st.P90Latency.Round(time.Millisecond), st.P99Latency.Round(time.Millisecond))
		fmt.Fprintf(w, "Peak Queue Depth           : %d\n", st.PeakQueueDepth)
	}
}

// SaveResults writes the stats as indented JSON to path.
func (s Stats) SaveResults(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write stats to %s: %w", path, err)
	}
	logrus.Debugf("Successfully wrote stats to '%s'", path)
	return nil
}
