package source

import (
	"sync"
	"time"
)

// Progress tracks a collection run. It is safe for concurrent reads while the
// collector updates it.
type Progress struct {
	mu sync.RWMutex

	total     int
	processed int
	fetched   int
	failed    int
	current   string
	status    string
	startedAt time.Time

	onUpdate func(ProgressSnapshot)
}

// NewProgress creates a tracker for total items.
func NewProgress(total int) *Progress {
	return &Progress{total: total, status: "pending", startedAt: time.Now()}
}

// SetOnUpdate sets a callback invoked after each change, outside the lock.
func (p *Progress) SetOnUpdate(fn func(ProgressSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// Start marks the run as started.
func (p *Progress) Start() {
	p.update(func() {
		p.status = "running"
		p.startedAt = time.Now()
	})
}

// SetCurrent records the item being fetched.
func (p *Progress) SetCurrent(ref string) {
	p.update(func() { p.current = ref })
}

// RecordFetched counts a successful fetch.
func (p *Progress) RecordFetched() {
	p.update(func() {
		p.fetched++
		p.processed++
	})
}

// RecordFailed counts a failed fetch.
func (p *Progress) RecordFailed() {
	p.update(func() {
		p.failed++
		p.processed++
	})
}

// Complete marks the run finished.
func (p *Progress) Complete(success bool) {
	p.update(func() {
		p.current = ""
		if success {
			p.status = "completed"
		} else {
			p.status = "failed"
		}
	})
}

// Cancel marks the run cancelled.
func (p *Progress) Cancel() {
	p.update(func() { p.status = "cancelled" })
}

func (p *Progress) update(fn func()) {
	p.mu.Lock()
	fn()
	cb := p.onUpdate
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() ProgressSnapshot {
	elapsed := time.Since(p.startedAt).Seconds()
	var remaining *float64
	if p.processed > 0 {
		est := elapsed / float64(p.processed) * float64(p.total-p.processed)
		remaining = &est
	}
	return ProgressSnapshot{
		Total:                     p.total,
		Processed:                 p.processed,
		Fetched:                   p.fetched,
		Failed:                    p.failed,
		Current:                   p.current,
		Status:                    p.status,
		StartedAt:                 p.startedAt,
		ElapsedSeconds:            elapsed,
		EstimatedRemainingSeconds: remaining,
	}
}

// ProgressSnapshot is an immutable view of Progress.
type ProgressSnapshot struct {
	Total                     int
	Processed                 int
	Fetched                   int
	Failed                    int
	Current                   string
	Status                    string
	StartedAt                 time.Time
	ElapsedSeconds            float64
	EstimatedRemainingSeconds *float64
}

// PercentComplete returns the share of items processed.
func (s ProgressSnapshot) PercentComplete() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.Total) * 100
}

// IsSuccess reports whether the run completed without failures.
func (s ProgressSnapshot) IsSuccess() bool {
	return s.Status == "completed" && s.Failed == 0
}
