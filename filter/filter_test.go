package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moxie-social/moxie/keyword"
)

type fakeToxicity struct {
	calls  int
	scores map[string]float64
	err    error
}

func (f *fakeToxicity) Toxicity(ctx context.Context, model, text string) (map[string]float64, error) {
	f.calls++
	return f.scores, f.err
}

type fakeClassifier struct {
	calls  int
	scores map[string]float64
	err    error
}

func (f *fakeClassifier) ZeroShot(ctx context.Context, model, text string, labels []string) (map[string]float64, error) {
	f.calls++
	return f.scores, f.err
}

type fakePairwise struct {
	calls int
	score float64
	err   error
}

func (f *fakePairwise) Pairwise(ctx context.Context, model, parent, candidate string) (float64, error) {
	f.calls++
	return f.score, f.err
}

func TestKeywordGateCaseInsensitive(t *testing.T) {
	assert := assert.New(t)
	g := &KeywordGate{List: keyword.NewList([]string{"badword"})}

	v := g.Check(context.Background(), "well BadWord indeed")
	assert.False(v.OK)
	assert.Equal("keyword", v.Gate)

	assert.True(g.Check(context.Background(), "all fine here").OK)
}

func TestChainShortCircuits(t *testing.T) {
	assert := assert.New(t)
	tox := &fakeToxicity{scores: map[string]float64{"nsfw": 0, "hate": 0, "threat": 0}}
	chain := &Chain{Gates: []Gate{
		&KeywordGate{List: keyword.NewList([]string{"badword"})},
		&ToxicityGate{Scorer: tox, Thresholds: map[string]float64{"nsfw": 0.9}},
	}}

	v := chain.Check(context.Background(), "contains badword")
	assert.False(v.OK)
	assert.Equal("keyword", v.Gate)
	assert.Equal(0, tox.calls, "network gate must not run after keyword rejection")

	v = chain.Check(context.Background(), "clean text")
	assert.True(v.OK)
	assert.Equal(1, tox.calls)
}

func TestToxicityGateThresholds(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	thresholds := map[string]float64{"nsfw": 0.9, "hate": 0.9, "threat": 0.9}

	g := &ToxicityGate{
		Scorer:     &fakeToxicity{scores: map[string]float64{"nsfw": 0.95, "hate": 0.1, "threat": 0.1}},
		Thresholds: thresholds,
	}
	assert.False(g.Check(ctx, "x").OK)

	g.Scorer = &fakeToxicity{scores: map[string]float64{"nsfw": 0.2, "hate": 0.2, "threat": 0.2}}
	assert.True(g.Check(ctx, "x").OK)
}

func TestToxicityGateFailsClosed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	thresholds := map[string]float64{"nsfw": 0.9}

	g := &ToxicityGate{Scorer: &fakeToxicity{err: errors.New("upstream down")}, Thresholds: thresholds}
	assert.False(g.Check(ctx, "x").OK)

	// missing attribute also rejects
	g = &ToxicityGate{Scorer: &fakeToxicity{scores: map[string]float64{"hate": 0.1}}, Thresholds: thresholds}
	assert.False(g.Check(ctx, "x").OK)
}

func TestTopicGateProbabilistic(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	cls := &fakeClassifier{scores: map[string]float64{"sailing": 0.9, "weather": 0.7}}
	g := &TopicGate{
		Classifier: cls,
		Topics:     func() []string { return []string{"sailing", "weather"} },
	}

	// mean 0.8: draw 0.5 accepts, draw 0.95 rejects
	g.Rand = func() float64 { return 0.5 }
	assert.True(g.Check(ctx, "a post about boats").OK)

	g.Rand = func() float64 { return 0.95 }
	v := g.Check(ctx, "a post about boats")
	assert.False(v.OK)
	assert.Equal("topic-relevance", v.Gate)
}

func TestTopicGateFailsClosed(t *testing.T) {
	g := &TopicGate{
		Classifier: &fakeClassifier{err: errors.New("upstream down")},
		Topics:     func() []string { return []string{"sailing"} },
		Rand:       func() float64 { return 0.0 },
	}
	assert.False(t, g.Check(context.Background(), "x").OK)
}

func TestPairwiseGateMinimum(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	g := &PairwiseGate{Scorer: &fakePairwise{score: 0.8}, Parent: "parent text", Min: 0.5}
	assert.True(g.Check(ctx, "reply text").OK)

	g = &PairwiseGate{Scorer: &fakePairwise{score: 0.3}, Parent: "parent text", Min: 0.5}
	assert.False(g.Check(ctx, "reply text").OK)

	g = &PairwiseGate{Scorer: &fakePairwise{err: errors.New("down")}, Parent: "parent text", Min: 0.5}
	assert.False(g.Check(ctx, "reply text").OK)
}
