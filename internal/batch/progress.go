package batch

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of batch progress.
type Snapshot struct {
	TotalItems       int
	ProcessedItems   int
	TotalBatches     int
	ProcessedBatches int
	Elapsed          time.Duration
}

// PercentComplete returns processed items as a percentage.
func (s Snapshot) PercentComplete() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return float64(s.ProcessedItems) / float64(s.TotalItems) * 100
}

type progress struct {
	mu    sync.Mutex
	snap  Snapshot
	start time.Time
}

func newProgress(totalItems, totalBatches int) *progress {
	return &progress{
		snap:  Snapshot{TotalItems: totalItems, TotalBatches: totalBatches},
		start: time.Now(),
	}
}

func (p *progress) add(items int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.ProcessedItems += items
	p.snap.ProcessedBatches++
	p.snap.Elapsed = time.Since(p.start)
	return p.snap
}
