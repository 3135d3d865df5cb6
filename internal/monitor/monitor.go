// Package monitor tracks open buffers and warns when too many accumulate.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is one open buffer with its open timestamp.
type Entry struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"openedAt"`
}

// Warning reports that more buffers are open than the limit allows. Oldest
// holds the excess entries, oldest first — the candidates offered for
// closing. Acting on the offer is the client's decision.
type Warning struct {
	Count  int     `json:"count"`
	Limit  int     `json:"limit"`
	Oldest []Entry `json:"oldest"`
}

// Tracker records open buffers. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	limit int
	open  map[string]time.Time
}

// NewTracker returns a tracker that warns above limit open buffers.
func NewTracker(limit int) *Tracker {
	return &Tracker{limit: limit, open: make(map[string]time.Time)}
}

// Open records a buffer as open. Reopening keeps the original timestamp.
func (t *Tracker) Open(path string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.open[path]; !ok {
		t.open[path] = at
	}
}

// Close forgets a buffer.
func (t *Tracker) Close(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.open, path)
}

// Len reports how many buffers are open.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Check returns nil while the open count is within the limit, otherwise a
// Warning carrying the excess entries, oldest first (ties broken by path).
func (t *Tracker) Check() *Warning {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.open) <= t.limit {
		return nil
	}

	entries := make([]Entry, 0, len(t.open))
	for p, at := range t.open {
		entries = append(entries, Entry{Path: p, OpenedAt: at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OpenedAt.Equal(entries[j].OpenedAt) {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].OpenedAt.Before(entries[j].OpenedAt)
	})

	excess := len(entries) - t.limit
	return &Warning{
		Count:  len(entries),
		Limit:  t.limit,
		Oldest: entries[:excess],
	}
}

// RunPeriodic calls notify on every interval tick that finds the tracker
// over its limit, until ctx is done.
func (t *Tracker) RunPeriodic(ctx context.Context, interval time.Duration, notify func(*Warning)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w := t.Check(); w != nil {
				notify(w)
			}
		}
	}
}
