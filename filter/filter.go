// Package filter implements the content filter chain: ordered accept/reject
// gates that every candidate utterance must clear before publication.
package filter

import (
	"context"
	"fmt"

	"github.com/moxie-social/moxie/keyword"
)

// Verdict is the outcome of one gate (or a whole chain). A rejection names
// the gate that fired, for observability; nothing that fails a gate is ever
// published.
type Verdict struct {
	OK     bool
	Gate   string
	Reason string
}

func Accept() Verdict {
	return Verdict{OK: true}
}

func Reject(gate, reason string) Verdict {
	return Verdict{Gate: gate, Reason: reason}
}

type Gate interface {
	Name() string
	Check(ctx context.Context, text string) Verdict
}

// Chain applies gates in order and short-circuits on the first rejection, so
// cheap local gates shield the network-backed ones.
type Chain struct {
	Gates []Gate
}

func (c *Chain) Check(ctx context.Context, text string) Verdict {
	for _, g := range c.Gates {
		if v := g.Check(ctx, text); !v.OK {
			rejectionsCounter.WithLabelValues(g.Name()).Inc()
			return v
		}
	}
	return Accept()
}

// KeywordGate rejects text containing any blocklisted term. Purely local.
type KeywordGate struct {
	List *keyword.List
}

func (g *KeywordGate) Name() string { return "keyword" }

func (g *KeywordGate) Check(ctx context.Context, text string) Verdict {
	if term := g.List.Match(text); term != "" {
		return Reject(g.Name(), fmt.Sprintf("matched blocklist term %q", term))
	}
	return Accept()
}

// ToxicityScorer is the external classification collaborator.
type ToxicityScorer interface {
	Toxicity(ctx context.Context, model, text string) (map[string]float64, error)
}

// ToxicityGate rejects text whose score on any attribute exceeds its
// configured threshold. Collaborator failure, or a score map that does not
// cover the threshold map, rejects: fail closed, never fail open.
type ToxicityGate struct {
	Scorer     ToxicityScorer
	Model      string
	Thresholds map[string]float64
}

func (g *ToxicityGate) Name() string { return "toxicity" }

func (g *ToxicityGate) Check(ctx context.Context, text string) Verdict {
	scores, err := g.Scorer.Toxicity(ctx, g.Model, text)
	if err != nil {
		return Reject(g.Name(), fmt.Sprintf("scoring failed, rejecting: %v", err))
	}
	for attr, max := range g.Thresholds {
		score, ok := scores[attr]
		if !ok {
			return Reject(g.Name(), fmt.Sprintf("no %s score returned, rejecting", attr))
		}
		if score > max {
			return Reject(g.Name(), fmt.Sprintf("%s score %.3f above %.3f", attr, score, max))
		}
	}
	return Accept()
}
