package engine

import (
	"context"
	"strings"
	"time"

	"github.com/moxie-social/moxie/filter"
	"github.com/moxie-social/moxie/platform"
)

// runSubmissionLoop triages the live stream of new submissions. Stream
// faults are recoverable: log, wait, resubscribe.
func (e *Engine) runSubmissionLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quit:
			return
		default:
		}

		ch, err := e.Client.StreamSubmissions(ctx, e.Config.SkipExisting)
		if err != nil {
			e.Logger.Error("submission stream subscription failed, retrying", "err", err)
			streamRestarts.WithLabelValues("submissions").Inc()
			e.sleep(30 * time.Second)
			continue
		}
		e.Logger.Info("watching submissions", "community", e.Config.Community)

		for sub := range ch {
			select {
			case <-ctx.Done():
				return
			case <-e.quit:
				return
			default:
			}
			e.evaluateSubmission(ctx, sub)
		}

		e.Logger.Warn("submission stream ended, resubscribing")
		streamRestarts.WithLabelValues("submissions").Inc()
	}
}

// evaluateSubmission runs the cheap pre-filters first (identity, post kind
// policy, keyword, toxicity, dedup), then the probabilistic topic gate, and
// only then spends generation budget on a reply.
func (e *Engine) evaluateSubmission(ctx context.Context, sub *platform.Submission) {
	e.Status.PostsSeen.Add(1)
	submissionsSeen.Inc()
	logger := e.Logger.With("submission", sub.ID)

	if sub.Author == e.Username {
		return
	}

	forced := false
	switch e.Config.LinkPostPolicy {
	case LinkPostsNone:
		if !sub.IsSelf {
			return
		}
	case LinkPostsSelf:
		if !sub.IsSelf {
			return
		}
	case LinkPostsOnly:
		if sub.IsSelf {
			return
		}
	case LinkPostsForced:
		forced = !sub.IsSelf
	}

	observed := strings.TrimSpace(sub.Title + "\n" + sub.SelfText)
	if term := e.Blocklist.Match(observed); term != "" {
		logger.Info("submission blocklisted", "term", term)
		return
	}
	if v := e.toxicityGate().Check(ctx, observed); !v.OK {
		logger.Info("submission too toxic to engage", "reason", v.Reason)
		return
	}

	engaged, err := e.alreadyEngaged(ctx, sub.ID)
	if err != nil {
		logger.Error("dedup check failed, skipping", "err", err)
		return
	}
	if engaged {
		return
	}

	if !forced {
		gate := &filter.TopicGate{
			Classifier: e.Topics,
			Model:      e.Config.TopicModel,
			Topics:     func() []string { return e.Persona.Load().Topics },
			Rand:       e.randFloat,
		}
		if v := gate.Check(ctx, observed); !v.OK {
			logger.Info("passing on submission", "reason", v.Reason)
			return
		}
	}

	tc, err := e.Threads.Root(ctx, sub)
	if err != nil {
		logger.Error("building submission context failed", "err", err)
		return
	}
	e.replyWithContext(ctx, logger, sub.ID, tc, e.safetyChain())
}
