package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/moxie-social/moxie/filter"
	"github.com/moxie-social/moxie/hfapi"
)

type Outcome int

const (
	// a candidate passed every gate
	OutcomeAccepted Outcome = iota
	// the backend call failed or returned nothing usable
	OutcomeBackendFailed
	// candidates came back, but every one was filtered out
	OutcomeAllRejected
	// today's character budget has no room for this prompt
	OutcomeBudgetExhausted
)

// Attempt is the result of one generate-filter-select pass.
type Attempt struct {
	Accepted string
	Outcome  Outcome
	// per-candidate rejection verdicts, in candidate order
	Rejections []filter.Verdict
	Err        error
}

var terminalPunct = regexp.MustCompile(`[?.!]`)

// CleanCandidate trims a raw generation to a presentable utterance: cut at
// the first double-quote if present, else drop the trailing unterminated
// sentence fragment, else cut at the last space. Returns "" when nothing
// presentable remains.
func CleanCandidate(text string) string {
	if i := strings.Index(text, `"`); i > -1 {
		return strings.TrimSpace(text[:i])
	}
	if locs := terminalPunct.FindAllStringIndex(text, -1); locs != nil {
		last := locs[len(locs)-1]
		return strings.TrimSpace(text[:last[1]])
	}
	if i := strings.LastIndex(text, " "); i > -1 {
		return strings.TrimSpace(text[:i])
	}
	return ""
}

// compose runs one external generation attempt: call the backend once, then
// clean and gate each candidate in order. The first candidate to pass wins;
// later candidates are never looked at. Backend failure and all-rejected are
// distinct outcomes so callers and logs can tell them apart.
func (e *Engine) compose(ctx context.Context, model, prompt string, params hfapi.GenerationParams, chain *filter.Chain) Attempt {
	// every submitted prompt spends budget, including retries
	if !e.Budget.Charge(prompt) {
		budgetRejections.Inc()
		e.Logger.Info("budget exhausted, skipping generation", "cost", len(prompt), "remaining", e.Budget.Remaining())
		return Attempt{Outcome: OutcomeBudgetExhausted}
	}

	candidates, err := e.Generator.Generate(ctx, model, prompt, params)
	if err != nil {
		generationFailures.Inc()
		return Attempt{Outcome: OutcomeBackendFailed, Err: err}
	}
	if len(candidates) == 0 {
		generationFailures.Inc()
		return Attempt{Outcome: OutcomeBackendFailed}
	}

	att := Attempt{Outcome: OutcomeAllRejected}
	for i, raw := range candidates {
		cleaned := CleanCandidate(strings.TrimPrefix(raw, prompt))
		if cleaned == "" {
			att.Rejections = append(att.Rejections, filter.Reject("cleanup", "nothing presentable after trimming"))
			continue
		}
		v := chain.Check(ctx, cleaned)
		if v.OK {
			att.Accepted = cleaned
			att.Outcome = OutcomeAccepted
			return att
		}
		e.Logger.Info("candidate rejected", "candidate", i, "gate", v.Gate, "reason", v.Reason)
		att.Rejections = append(att.Rejections, v)
	}
	return att
}

// composeWithRetries re-runs the whole generation up to tries times, with a
// cooldown between attempts. Only the posting path retries; replies get a
// single attempt. A permanent backend error aborts early.
func (e *Engine) composeWithRetries(ctx context.Context, model, prompt string, params hfapi.GenerationParams, chain *filter.Chain, tries int) Attempt {
	var att Attempt
	for i := 0; i < tries; i++ {
		att = e.compose(ctx, model, prompt, params, chain)
		if att.Outcome == OutcomeAccepted {
			return att
		}
		if att.Outcome == OutcomeBudgetExhausted {
			return att
		}
		if att.Err != nil && hfapi.IsPermanent(att.Err) {
			return att
		}
		if i < tries-1 {
			e.sleep(e.Config.RetryCooldown)
		}
	}
	return att
}
