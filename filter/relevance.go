package filter

import (
	"context"
	"fmt"
)

// TopicClassifier is the external zero-shot classification collaborator.
type TopicClassifier interface {
	ZeroShot(ctx context.Context, model, text string, labels []string) (map[string]float64, error)
}

// TopicGate scores text against the persona's topic list and compares the
// mean score against a fresh random draw: the chance of engaging is
// proportional to relevance rather than a hard cutoff, so engagement
// patterns stay irregular. Fails closed on classifier error.
type TopicGate struct {
	Classifier TopicClassifier
	Model      string
	Topics     func() []string

	// test seam; defaults to rand.Float64 when assembled by the engine
	Rand func() float64
}

func (g *TopicGate) Name() string { return "topic-relevance" }

func (g *TopicGate) Check(ctx context.Context, text string) Verdict {
	topics := g.Topics()
	if len(topics) == 0 {
		return Accept()
	}
	scores, err := g.Classifier.ZeroShot(ctx, g.Model, text, topics)
	if err != nil {
		return Reject(g.Name(), fmt.Sprintf("classification failed, rejecting: %v", err))
	}
	var sum float64
	for _, t := range topics {
		sum += scores[t]
	}
	mean := sum / float64(len(topics))
	if draw := g.Rand(); draw >= mean {
		return Reject(g.Name(), fmt.Sprintf("relevance %.3f lost draw %.3f", mean, draw))
	}
	return Accept()
}

// PairwiseScorer is the external pairwise relevance collaborator.
type PairwiseScorer interface {
	Pairwise(ctx context.Context, model, parent, candidate string) (float64, error)
}

// PairwiseGate rejects candidate replies scoring below a configured minimum
// relevance to their parent text. Fails closed on scorer error.
type PairwiseGate struct {
	Scorer PairwiseScorer
	Model  string
	Parent string
	Min    float64
}

func (g *PairwiseGate) Name() string { return "pairwise-relevance" }

func (g *PairwiseGate) Check(ctx context.Context, text string) Verdict {
	score, err := g.Scorer.Pairwise(ctx, g.Model, g.Parent, text)
	if err != nil {
		return Reject(g.Name(), fmt.Sprintf("scoring failed, rejecting: %v", err))
	}
	if score < g.Min {
		return Reject(g.Name(), fmt.Sprintf("relevance %.3f below %.3f", score, g.Min))
	}
	return Accept()
}
