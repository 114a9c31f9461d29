package engine

import (
	"context"
	"log/slog"

	"github.com/moxie-social/moxie/filter"
	"github.com/moxie-social/moxie/thread"
)

// replyWithContext turns an assembled thread context into at most one
// published reply: word-cap check, prompt assembly, one generate-filter
// pass, publish. Replies do not retry generation; the next stream event is
// a fresh chance.
func (e *Engine) replyWithContext(ctx context.Context, logger *slog.Logger, targetID string, tc *thread.Context, chain *filter.Chain) {
	if !tc.Complete && !e.Config.ReplyWithoutRoot {
		logger.Info("thread context missing root post, discarding reply attempt")
		return
	}
	if e.Config.MaxPromptWords > 0 && tc.Words() > e.Config.MaxPromptWords {
		logger.Info("thread context too long", "words", tc.Words(), "max", e.Config.MaxPromptWords)
		return
	}

	prompt := tc.Prompt(e.Persona.Load().Backstory)
	att := e.compose(ctx, e.Config.ReplyModel, prompt, e.Config.ReplyParams, chain)
	if att.Outcome != OutcomeAccepted {
		e.logComposeFailure("reply", att)
		return
	}

	if err := e.Client.Reply(ctx, targetID, att.Accepted); err != nil {
		logger.Error("publishing reply failed", "err", err)
		return
	}
	e.Status.CommentsMade.Add(1)
	commentsMade.Inc()
	logger.Info("reply published", "target", targetID)
}
