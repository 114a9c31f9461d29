package engine

import (
	"fmt"
	"strings"
	"time"
)

// nextPostTime resolves the next wall-clock posting tick: the earliest
// scheduled per-weekday time after now, or now+interval when no schedule is
// configured.
func (e *Engine) nextPostTime(now time.Time) (time.Time, error) {
	if len(e.Config.Schedule) == 0 {
		interval := e.Config.PostInterval
		if interval <= 0 {
			interval = 6 * time.Hour
		}
		return now.Add(interval), nil
	}

	// scan a full week ahead; a sparse schedule still yields a tick
	for dayOffset := 0; dayOffset <= 7; dayOffset++ {
		day := now.AddDate(0, 0, dayOffset)
		times, ok := e.Config.Schedule[strings.ToLower(day.Weekday().String())]
		if !ok {
			continue
		}
		for _, hm := range times {
			var hour, minute int
			if _, err := fmt.Sscanf(hm, "%d:%d", &hour, &minute); err != nil {
				return time.Time{}, fmt.Errorf("malformed schedule time %q: %w", hm, err)
			}
			t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
			if t.After(now) {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("posting schedule yields no future times")
}
