// Package engine is the decision core of the agent: it owns the three
// control loops, the generate-filter-select pipeline, the shared character
// budget, and the live persona state.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/moxie-social/moxie/budget"
	"github.com/moxie-social/moxie/filter"
	"github.com/moxie-social/moxie/hfapi"
	"github.com/moxie-social/moxie/keyword"
	"github.com/moxie-social/moxie/persona"
	"github.com/moxie-social/moxie/platform"
	"github.com/moxie-social/moxie/thread"
)

// LinkPostPolicy controls which kinds of submissions the triage loop will
// consider replying to.
type LinkPostPolicy string

const (
	LinkPostsNone   = LinkPostPolicy("none")
	LinkPostsSelf   = LinkPostPolicy("self-only")
	LinkPostsOnly   = LinkPostPolicy("link-only")
	LinkPostsForced = LinkPostPolicy("force-link-reply")
)

type Config struct {
	Community string

	ReplyModel string
	PostModel  string
	// when PostModel is empty the posting loop falls back to the one-shot
	// persona strategy (separate title and body generations)
	ReplyParams hfapi.GenerationParams
	PostParams  hfapi.GenerationParams

	ToxicityModel      string
	ToxicityThresholds map[string]float64
	TopicModel         string
	PairwiseModel      string
	MinRelevance       float64

	// daily cap on characters submitted as generation input
	CharacterBudget int

	PostTries     int
	RetryCooldown time.Duration

	MaxLevels      int
	MaxPromptWords int

	LinkPostShare float64
	ReplyChance   float64
	TriggerWords  []string

	FollowupOnly     bool
	ForceTopReply    bool
	ReplyWithoutRoot bool
	LinkPostPolicy   LinkPostPolicy

	// per-weekday "HH:MM" posting times; PostInterval is the fallback
	Schedule     map[string][]string
	PostInterval time.Duration

	Operator          string
	ReconfigurePrefix string
	KillPhrase        string

	// also triage every community comment, not just inbox items
	WatchComments bool

	SkipExisting bool
}

// Generator is the opaque text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, params hfapi.GenerationParams) ([]string, error)
}

// ImageMaker renders a prompt into a hosted image URL, for link posts.
type ImageMaker interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Engine bundles the collaborator handles and shared state. All fields are
// set once at startup; Persona is the only one whose contents change while
// the loops run.
type Engine struct {
	Logger    *slog.Logger
	Client    platform.Client
	Generator Generator
	Toxicity  filter.ToxicityScorer
	Topics    filter.TopicClassifier
	Pairwise  filter.PairwiseScorer
	// optional; nil disables image link posts
	Images ImageMaker

	Budget    *budget.Tracker
	Persona   *persona.Holder
	Blocklist *keyword.List
	Threads   *thread.Builder
	Status    *Status
	Config    Config

	// self username, resolved at startup
	Username string

	quit chan struct{}

	// test seams
	randFloat func() float64
	sleep     func(time.Duration)
	now       func() time.Time
}

func New(logger *slog.Logger, client platform.Client, ai *hfapi.Client, images ImageMaker, hold *persona.Holder, block *keyword.List, threads *thread.Builder, cfg Config) *Engine {
	return &Engine{
		Logger:    logger,
		Client:    client,
		Generator: ai,
		Toxicity:  ai,
		Topics:    ai,
		Pairwise:  ai,
		Images:    images,
		Budget:    budget.NewTracker(cfg.budgetLimit()),
		Persona:   hold,
		Blocklist: block,
		Threads:   threads,
		Status:    &Status{},
		Config:    cfg,
		quit:      make(chan struct{}),
		randFloat: rand.Float64,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

func (cfg Config) budgetLimit() int {
	if cfg.CharacterBudget > 0 {
		return cfg.CharacterBudget
	}
	return 50000
}

// toxicityGate builds the shared toxicity gate for the current config.
func (e *Engine) toxicityGate() *filter.ToxicityGate {
	return &filter.ToxicityGate{
		Scorer:     e.Toxicity,
		Model:      e.Config.ToxicityModel,
		Thresholds: e.Config.ToxicityThresholds,
	}
}

// postChain gates candidate posts / new-thread engagement: keyword, then
// toxicity, then probabilistic topic relevance against the live persona.
func (e *Engine) postChain() *filter.Chain {
	return &filter.Chain{Gates: []filter.Gate{
		&filter.KeywordGate{List: e.Blocklist},
		e.toxicityGate(),
		&filter.TopicGate{
			Classifier: e.Topics,
			Model:      e.Config.TopicModel,
			Topics:     func() []string { return e.Persona.Load().Topics },
			Rand:       e.randFloat,
		},
	}}
}

// replyChain gates candidate comment replies: keyword, toxicity, pairwise
// relevance to the parent text.
func (e *Engine) replyChain(parentText string) *filter.Chain {
	return &filter.Chain{Gates: []filter.Gate{
		&filter.KeywordGate{List: e.Blocklist},
		e.toxicityGate(),
		&filter.PairwiseGate{
			Scorer: e.Pairwise,
			Model:  e.Config.PairwiseModel,
			Parent: parentText,
			Min:    e.Config.MinRelevance,
		},
	}}
}

// safetyChain is keyword + toxicity only, used for pre-filtering observed
// content and vetting persona reconfiguration.
func (e *Engine) safetyChain() *filter.Chain {
	return &filter.Chain{Gates: []filter.Gate{
		&filter.KeywordGate{List: e.Blocklist},
		e.toxicityGate(),
	}}
}
