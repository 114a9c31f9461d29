package budget

import (
	"sync"
	"time"
)

// Tracker is a rolling daily ledger of characters submitted to the
// text-generation backend. One tracker is shared across all of the engine's
// loops, so the check-then-add is guarded; otherwise two loops could each
// pass the check and jointly overspend the day.
//
// The day rolls over lazily: the first charge attempted on a new UTC calendar
// day resets the ledger. There is no background timer.
type Tracker struct {
	mu    sync.Mutex
	day   string
	spent int
	limit int

	// swapped out in tests
	now func() time.Time
}

func NewTracker(limit int) *Tracker {
	return &Tracker{
		limit: limit,
		now:   time.Now,
	}
}

// Charge spends len(text) characters against the daily limit. Returns true
// and records the spend only if spent+cost is strictly below the limit; a
// charge that would land exactly on the limit is rejected. Rejected charges
// do not mutate the ledger.
func (t *Tracker) Charge(text string) bool {
	cost := len(text)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	if t.spent+cost >= t.limit {
		return false
	}
	t.spent += cost
	return true
}

// Spent reports the characters charged so far today.
func (t *Tracker) Spent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.spent
}

// Remaining reports how many characters could still be charged today.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	r := t.limit - t.spent
	if r < 0 {
		return 0
	}
	return r
}

func (t *Tracker) rolloverLocked() {
	d := t.now().UTC().Format(time.DateOnly)
	if d != t.day {
		t.day = d
		t.spent = 0
	}
}
