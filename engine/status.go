package engine

import (
	"log/slog"
	"sync/atomic"
)

// Status holds process-lifetime engagement counters. Monotonic, in-memory
// only; a restart starts over from zero.
type Status struct {
	PostsSeen    atomic.Int64
	CommentsSeen atomic.Int64
	PostsMade    atomic.Int64
	CommentsMade atomic.Int64
}

func (s *Status) Log(logger *slog.Logger, remaining int) {
	logger.Info("engagement status",
		"posts_seen", s.PostsSeen.Load(),
		"comments_seen", s.CommentsSeen.Load(),
		"posts_made", s.PostsMade.Load(),
		"comments_made", s.CommentsMade.Load(),
		"budget_remaining", remaining,
	)
}
