package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/moxie-social/moxie/budget"
	"github.com/moxie-social/moxie/hfapi"
	"github.com/moxie-social/moxie/keyword"
	"github.com/moxie-social/moxie/persona"
	"github.com/moxie-social/moxie/platform"
	"github.com/moxie-social/moxie/thread"
)

// fakeAI stands in for every inference collaborator, with call counts so
// tests can assert which gates actually ran.
type fakeAI struct {
	GenCalls   int
	Candidates []string
	GenErr     error

	ToxCalls  int
	ToxScores map[string]float64
	ToxErr    error

	ZSCalls  int
	ZSScores map[string]float64
	ZSErr    error

	PWCalls int
	PWScore float64
	PWErr   error
}

func (f *fakeAI) Generate(ctx context.Context, model, prompt string, params hfapi.GenerationParams) ([]string, error) {
	f.GenCalls++
	return f.Candidates, f.GenErr
}

func (f *fakeAI) Toxicity(ctx context.Context, model, text string) (map[string]float64, error) {
	f.ToxCalls++
	return f.ToxScores, f.ToxErr
}

func (f *fakeAI) ZeroShot(ctx context.Context, model, text string, labels []string) (map[string]float64, error) {
	f.ZSCalls++
	return f.ZSScores, f.ZSErr
}

func (f *fakeAI) Pairwise(ctx context.Context, model, parent, candidate string) (float64, error) {
	f.PWCalls++
	return f.PWScore, f.PWErr
}

type fakeCaptioner struct{}

func (fakeCaptioner) Caption(ctx context.Context, model, imageURL string) (string, error) {
	return "an image", nil
}

func cleanScores() map[string]float64 {
	return map[string]float64{"nsfw": 0.05, "hate": 0.05, "threat": 0.05}
}

func engineTestFixture() (*Engine, *fakeAI, *platform.FakeClient) {
	logger := slog.Default()
	ai := &fakeAI{
		Candidates: []string{`a perfectly pleasant reply." and trailing junk`},
		ToxScores:  cleanScores(),
		ZSScores:   map[string]float64{},
		PWScore:    0.9,
	}
	client := platform.NewFakeClient("moxie")
	block := keyword.NewList([]string{"badword"})
	hold := persona.NewHolder(persona.Snapshot{
		Backstory: "You are a retired sea captain.",
		Topics:    []string{"sailing", "weather"},
	})
	cfg := Config{
		Community:          "r/harborwatch",
		ReplyModel:         "reply-model",
		ToxicityThresholds: map[string]float64{"nsfw": 0.9, "hate": 0.9, "threat": 0.9},
		TopicModel:         "topic-model",
		PairwiseModel:      "pairwise-model",
		MinRelevance:       0.5,
		CharacterBudget:    100000,
		PostTries:          2,
		MaxLevels:          4,
		ReplyChance:        0.5,
	}
	eng := &Engine{
		Logger:    logger,
		Client:    client,
		Generator: ai,
		Toxicity:  ai,
		Topics:    ai,
		Pairwise:  ai,
		Budget:    budget.NewTracker(cfg.CharacterBudget),
		Persona:   hold,
		Blocklist: block,
		Threads:   thread.NewBuilder(client, fakeCaptioner{}, "caption-model", logger),
		Status:    &Status{},
		Config:    cfg,
		Username:  "moxie",
		quit:      make(chan struct{}),
		randFloat: func() float64 { return 0.5 },
		sleep:     func(time.Duration) {},
		now:       time.Now,
	}
	return eng, ai, client
}
