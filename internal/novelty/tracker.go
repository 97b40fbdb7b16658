package novelty

import (
	"sync"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/models"
)

const (
	DefaultWindowSize   = 10
	DefaultHighlightTTL = 8 * time.Second
)

// Tracker distinguishes which entries of the recent-reports window are
// genuinely new since the page was opened, driving a transient highlight.
//
// The first non-empty observation is the baseline: every id present is
// recorded as seen and nothing is flagged. After that, any id entering the
// top-N window for the first time is highlighted for the configured TTL.
// Novelty is keyed purely on id membership; a field update on a known id
// never flags.
type Tracker struct {
	mu          sync.Mutex
	windowSize  int
	ttl         time.Duration
	baselined   bool
	seen        map[int64]struct{}
	highlighted map[int64]*time.Timer
	stopped     bool
}

func New(windowSize int, ttl time.Duration) *Tracker {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if ttl <= 0 {
		ttl = DefaultHighlightTTL
	}
	return &Tracker{
		windowSize:  windowSize,
		ttl:         ttl,
		seen:        make(map[int64]struct{}),
		highlighted: make(map[int64]*time.Timer),
	}
}

// Observe takes the current report list, newest first, and flags ids in the
// top-N window that have not been seen before. Returns the ids newly flagged
// by this call.
func (t *Tracker) Observe(reports []models.Report) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || len(reports) == 0 {
		return nil
	}

	if !t.baselined {
		// Baseline snapshot: everything already present is "seen", no highlight.
		for i := range reports {
			t.seen[reports[i].ID] = struct{}{}
		}
		t.baselined = true
		return nil
	}

	window := reports
	if len(window) > t.windowSize {
		window = window[:t.windowSize]
	}

	var flagged []int64
	for i := range window {
		id := window[i].ID
		if _, ok := t.seen[id]; ok {
			continue
		}
		t.seen[id] = struct{}{}
		flagged = append(flagged, id)
		// Each id expires independently.
		t.highlighted[id] = time.AfterFunc(t.ttl, func() {
			t.mu.Lock()
			delete(t.highlighted, id)
			t.mu.Unlock()
		})
	}
	return flagged
}

func (t *Tracker) IsHighlighted(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.highlighted[id]
	return ok
}

// Highlighted returns the ids currently within their highlight window.
func (t *Tracker) Highlighted() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int64, 0, len(t.highlighted))
	for id := range t.highlighted {
		out = append(out, id)
	}
	return out
}

// Stop cancels all pending expiry timers. The tracker flags nothing after
// Stop; safe to call more than once.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for id, timer := range t.highlighted {
		timer.Stop()
		delete(t.highlighted, id)
	}
}
