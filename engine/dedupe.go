package engine

import (
	"context"
	"fmt"
)

// alreadyEngaged reports whether the agent has already replied directly to
// the target. The check re-scans the live reply listing every time rather
// than keeping a ledger: it survives restarts for free, at the cost of being
// a point-in-time answer (two loops racing on the same target, or a crash
// mid-reply, can still double-post).
func (e *Engine) alreadyEngaged(ctx context.Context, targetID string) (bool, error) {
	replies, err := e.Client.Replies(ctx, targetID)
	if err != nil {
		return false, fmt.Errorf("listing replies of %s: %w", targetID, err)
	}
	for _, r := range replies {
		if r.Author == e.Username {
			return true, nil
		}
	}
	return false, nil
}
