package engine

import (
	"context"
	"time"
)

// runCommentLoop watches every new comment in the community, not just
// mentions of the agent. Optional: it multiplies collaborator traffic, so
// smaller deployments rely on the inbox loop alone.
func (e *Engine) runCommentLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quit:
			return
		default:
		}

		ch, err := e.Client.StreamComments(ctx, e.Config.SkipExisting)
		if err != nil {
			e.Logger.Error("comment stream subscription failed, retrying", "err", err)
			streamRestarts.WithLabelValues("comments").Inc()
			e.sleep(30 * time.Second)
			continue
		}
		e.Logger.Info("watching comments", "community", e.Config.Community)

		for c := range ch {
			select {
			case <-ctx.Done():
				return
			case <-e.quit:
				return
			default:
			}
			e.Status.CommentsSeen.Add(1)
			commentsSeen.Inc()
			e.evaluateReplyTarget(ctx, e.Logger.With("comment", c.ID), c)
		}

		e.Logger.Warn("comment stream ended, resubscribing")
		streamRestarts.WithLabelValues("comments").Inc()
	}
}
