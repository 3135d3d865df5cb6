package monitor

import (
	"context"
	"testing"
	"time"
)

func TestTrackerOpenClose(t *testing.T) {
	t.Parallel()

	tr := NewTracker(5)
	now := time.Now()

	tr.Open("a.py", now)
	tr.Open("b.py", now)
	if tr.Len() != 2 {
		t.Errorf("Len = %d, want 2", tr.Len())
	}

	tr.Close("a.py")
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}

	tr.Close("never-opened.py") // no-op
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

func TestCheckWithinLimit(t *testing.T) {
	t.Parallel()

	tr := NewTracker(2)
	now := time.Now()
	tr.Open("a.py", now)
	tr.Open("b.py", now)

	if w := tr.Check(); w != nil {
		t.Errorf("at the limit is not over it, got %+v", w)
	}
}

func TestCheckOverLimit(t *testing.T) {
	t.Parallel()

	tr := NewTracker(2)
	base := time.Now()
	tr.Open("newest.py", base.Add(3*time.Second))
	tr.Open("oldest.py", base)
	tr.Open("middle.py", base.Add(1*time.Second))
	tr.Open("newer.py", base.Add(2*time.Second))

	w := tr.Check()
	if w == nil {
		t.Fatal("expected a warning")
	}
	if w.Count != 4 || w.Limit != 2 {
		t.Errorf("count/limit = %d/%d, want 4/2", w.Count, w.Limit)
	}
	if len(w.Oldest) != 2 {
		t.Fatalf("excess = %d entries, want 2", len(w.Oldest))
	}
	if w.Oldest[0].Path != "oldest.py" || w.Oldest[1].Path != "middle.py" {
		t.Errorf("oldest = [%s, %s], want [oldest.py, middle.py]", w.Oldest[0].Path, w.Oldest[1].Path)
	}
}

func TestCheckTieBrokenByPath(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1)
	at := time.Now()
	tr.Open("b.py", at)
	tr.Open("a.py", at)

	w := tr.Check()
	if w == nil {
		t.Fatal("expected a warning")
	}
	if len(w.Oldest) != 1 || w.Oldest[0].Path != "a.py" {
		t.Errorf("oldest = %+v, want [a.py]", w.Oldest)
	}
}

func TestReopenKeepsOriginalTimestamp(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1)
	base := time.Now()
	tr.Open("a.py", base)
	tr.Open("b.py", base.Add(time.Second))
	tr.Open("a.py", base.Add(time.Hour)) // reopen must not refresh

	w := tr.Check()
	if w == nil {
		t.Fatal("expected a warning")
	}
	if w.Oldest[0].Path != "a.py" {
		t.Errorf("oldest = %q, want a.py", w.Oldest[0].Path)
	}
}

func TestRunPeriodic(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1)
	now := time.Now()
	tr.Open("a.py", now)
	tr.Open("b.py", now.Add(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	warned := make(chan *Warning, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		tr.RunPeriodic(ctx, 10*time.Millisecond, func(w *Warning) {
			select {
			case warned <- w:
			default:
			}
		})
	}()

	select {
	case w := <-warned:
		if w.Count != 2 {
			t.Errorf("count = %d, want 2", w.Count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no warning within 2s")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not stop after cancel")
	}
}

func TestRunPeriodicQuietWhenWithinLimit(t *testing.T) {
	t.Parallel()

	tr := NewTracker(5)
	tr.Open("a.py", time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	calls := 0
	tr.RunPeriodic(ctx, 10*time.Millisecond, func(*Warning) { calls++ })
	if calls != 0 {
		t.Errorf("notify called %d times for a tracker within its limit", calls)
	}
}
