package sim

import (
	"sync"
	"testing"
)

func TestIDGenerator_Next_StartsAtOneAndIncrements(t *testing.T) {
	var g IDGenerator
	for want := int64(1); want <= 3; want++ {
		if got := g.Next(); got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}
}

func TestIDGenerator_Next_ConcurrentCallersGetUniqueIDs(t *testing.T) {
	// GIVEN 50 goroutines each drawing 1000 ids
	var g IDGenerator
	const goroutines, perGoroutine = 50, 1000
	results := make([][]int64, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids := make([]int64, perGoroutine)
			for j := range ids {
				ids[j] = g.Next()
			}
			results[i] = ids
		}(i)
	}
	wg.Wait()

	// THEN no id repeats, each goroutine saw increasing ids, and the range is dense
	seen := make(map[int64]bool, goroutines*perGoroutine)
	for _, ids := range results {
		for j, id := range ids {
			if seen[id] {
				t.Fatalf("id %d returned twice", id)
			}
			seen[id] = true
			if j > 0 && id <= ids[j-1] {
				t.Errorf("ids not increasing within one caller: %d after %d", id, ids[j-1])
			}
		}
	}
	for id := int64(1); id <= goroutines*perGoroutine; id++ {
		if !seen[id] {
			t.Fatalf("id %d never returned", id)
		}
	}
}
