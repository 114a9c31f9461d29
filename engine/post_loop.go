package engine

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// runPostingLoop publishes new posts on the configured wall-clock schedule.
func (e *Engine) runPostingLoop(ctx context.Context) {
	for {
		next, err := e.nextPostTime(e.now())
		if err != nil {
			e.Logger.Error("posting schedule unusable, stopping posting loop", "err", err)
			return
		}
		e.Logger.Info("next post scheduled", "at", next)

		timer := time.NewTimer(next.Sub(e.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-e.quit:
			timer.Stop()
			return
		case <-timer.C:
		}

		if e.Config.PostModel != "" {
			e.makeStructuredPost(ctx)
		} else {
			e.makePersonaPost(ctx)
		}
		e.Status.Log(e.Logger, e.Budget.Remaining())
	}
}

// makePersonaPost is the fallback posting strategy when no post model is
// configured: prompt the reply model for a title, then independently for a
// body or a generated image, each budget-checked and filtered on its own.
func (e *Engine) makePersonaPost(ctx context.Context) {
	snap := e.Persona.Load()
	chain := e.postChain()

	titlePrompt := snap.Backstory + "\nPost title: "
	att := e.composeWithRetries(ctx, e.Config.ReplyModel, titlePrompt, e.Config.PostParams, chain, e.Config.PostTries)
	if att.Outcome != OutcomeAccepted {
		e.logComposeFailure("post title", att)
		return
	}
	title := att.Accepted

	// link-post share decided per attempt
	if e.Images != nil && e.randFloat() < e.Config.LinkPostShare {
		imageURL, err := e.Images.GenerateImage(ctx, title)
		if err != nil {
			e.Logger.Error("image generation failed, dropping post attempt", "err", err)
			return
		}
		if err := e.Client.SubmitLinkPost(ctx, title, imageURL, ""); err != nil {
			e.Logger.Error("link post submission failed", "err", err)
			return
		}
		e.recordPost(title, "link")
		return
	}

	bodyPrompt := titlePrompt + title + "\nPost body: "
	att = e.composeWithRetries(ctx, e.Config.ReplyModel, bodyPrompt, e.Config.PostParams, chain, e.Config.PostTries)
	if att.Outcome != OutcomeAccepted {
		e.logComposeFailure("post body", att)
		return
	}
	if err := e.Client.SubmitSelfPost(ctx, title, att.Accepted, ""); err != nil {
		e.Logger.Error("self post submission failed", "err", err)
		return
	}
	e.recordPost(title, "self")
}

var (
	titleMarker = regexp.MustCompile(`<\|sot\|>(.*?)<\|eot\|>`)
	bodyMarker  = regexp.MustCompile(`<\|sost\|>(.*?)<\|eost\|>`)
)

// ExtractPost pulls title and selftext out of raw generated text carrying
// embedded post-structure markers.
func ExtractPost(raw string) (title, body string, ok bool) {
	tm := titleMarker.FindStringSubmatch(raw)
	if tm == nil {
		return "", "", false
	}
	title = strings.TrimSpace(tm[1])
	if title == "" {
		return "", "", false
	}
	if bm := bodyMarker.FindStringSubmatch(raw); bm != nil {
		body = strings.TrimSpace(bm[1])
	}
	return title, body, true
}

// makeStructuredPost uses the dedicated post model: one generation returns
// marker-delimited raw text from which title and selftext are extracted.
func (e *Engine) makeStructuredPost(ctx context.Context) {
	snap := e.Persona.Load()
	prompt := snap.Backstory + "\n<|sot|>"
	chain := e.postChain()

	for i := 0; i < e.Config.PostTries; i++ {
		if !e.Budget.Charge(prompt) {
			budgetRejections.Inc()
			e.Logger.Info("budget exhausted, skipping scheduled post")
			return
		}
		candidates, err := e.Generator.Generate(ctx, e.Config.PostModel, prompt, e.Config.PostParams)
		if err != nil {
			generationFailures.Inc()
			e.Logger.Error("post generation failed", "err", err, "attempt", i)
			e.sleep(e.Config.RetryCooldown)
			continue
		}
		for _, raw := range candidates {
			title, body, ok := ExtractPost("<|sot|>" + strings.TrimPrefix(raw, prompt))
			if !ok {
				continue
			}
			if v := chain.Check(ctx, strings.TrimSpace(title+"\n"+body)); !v.OK {
				e.Logger.Info("structured post rejected", "gate", v.Gate, "reason", v.Reason)
				continue
			}
			if err := e.Client.SubmitSelfPost(ctx, title, body, ""); err != nil {
				e.Logger.Error("post submission failed", "err", err)
				return
			}
			e.recordPost(title, "self")
			return
		}
		e.sleep(e.Config.RetryCooldown)
	}
	e.Logger.Info("no acceptable post after all attempts", "tries", e.Config.PostTries)
}

func (e *Engine) recordPost(title, kind string) {
	e.Status.PostsMade.Add(1)
	postsMade.Inc()
	e.Logger.Info("post published", "kind", kind, "title", title)
}

func (e *Engine) logComposeFailure(what string, att Attempt) {
	switch att.Outcome {
	case OutcomeBackendFailed:
		e.Logger.Error("generation backend failed", "what", what, "err", att.Err)
	case OutcomeAllRejected:
		e.Logger.Info("all candidates rejected", "what", what, "candidates", len(att.Rejections))
	case OutcomeBudgetExhausted:
		// already logged at charge time
	}
}
