// sim/metrics_utils.go
package sim

import (
	"math"
	"slices"
)

type Number interface {
	~int | ~int64 | ~float64
}

// CalculatePercentile is a util function that calculates the p-th percentile of a sorted data list,
// interpolating linearly between the two closest ranks. Returns 0 for an empty list.
func CalculatePercentile[T Number](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		return float64(data[n-1])
	}
	if lowerIdx == upperIdx {
		return float64(data[lowerIdx])
	}
	lowerVal := float64(data[lowerIdx])
	upperVal := float64(data[upperIdx])
	return lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// CalculateMean is a util function that calculates the mean of a data list.
// Returns 0 for an empty list.
func CalculateMean[T Number](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}

	return sum / float64(len(numbers))
}

// stageLatencies collects Latency(stage) for every record, sorted ascending.
func stageLatencies(records []Request, stage Stage) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, int64(r.Latency(stage)))
	}
	slices.Sort(out)
	return out
}
