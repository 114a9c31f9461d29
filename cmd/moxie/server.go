package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moxie-social/moxie/engine"
	"github.com/moxie-social/moxie/hfapi"
	"github.com/moxie-social/moxie/keyword"
	"github.com/moxie-social/moxie/persona"
	"github.com/moxie-social/moxie/platform"
	"github.com/moxie-social/moxie/thread"
)

type Server struct {
	logger *slog.Logger
	engine *engine.Engine
}

// NewServer assembles the engine from flags and the persona file. Anything
// missing or malformed here is a configuration error: fatal, before any loop
// starts.
func NewServer(logger *slog.Logger, cctx *cli.Context) (*Server, error) {
	host := cctx.String("platform-host")
	if host == "" {
		return nil, fmt.Errorf("platform-host is required")
	}
	if cctx.String("platform-token") == "" {
		return nil, fmt.Errorf("platform-token is required")
	}
	if cctx.String("hf-api-token") == "" {
		return nil, fmt.Errorf("hf-api-token is required")
	}
	community := cctx.String("community")
	if community == "" {
		return nil, fmt.Errorf("community is required")
	}
	if cctx.String("reply-model") == "" {
		return nil, fmt.Errorf("reply-model is required")
	}

	pf, err := persona.LoadFile(cctx.String("persona-file"))
	if err != nil {
		return nil, err
	}
	logger.Info("persona loaded", "topics", len(pf.Topics))

	var replyParams, postParams hfapi.GenerationParams
	if err := json.Unmarshal([]byte(cctx.String("reply-params")), &replyParams); err != nil {
		return nil, fmt.Errorf("parsing reply-params: %w", err)
	}
	if err := json.Unmarshal([]byte(cctx.String("post-params")), &postParams); err != nil {
		return nil, fmt.Errorf("parsing post-params: %w", err)
	}

	policy := engine.LinkPostPolicy(cctx.String("link-post-policy"))
	switch policy {
	case engine.LinkPostsNone, engine.LinkPostsSelf, engine.LinkPostsOnly, engine.LinkPostsForced:
	default:
		return nil, fmt.Errorf("unknown link-post-policy %q", policy)
	}

	threshold := cctx.Float64("toxicity-threshold")
	cfg := engine.Config{
		Community:   community,
		ReplyModel:  cctx.String("reply-model"),
		PostModel:   cctx.String("post-model"),
		ReplyParams: replyParams,
		PostParams:  postParams,

		ToxicityModel: cctx.String("toxicity-model"),
		ToxicityThresholds: map[string]float64{
			"nsfw":   threshold,
			"hate":   threshold,
			"threat": threshold,
		},
		TopicModel:    cctx.String("topic-model"),
		PairwiseModel: cctx.String("pairwise-model"),
		MinRelevance:  cctx.Float64("min-relevance"),

		CharacterBudget: cctx.Int("character-budget"),
		PostTries:       cctx.Int("post-tries"),
		RetryCooldown:   cctx.Duration("retry-cooldown"),
		MaxLevels:       cctx.Int("max-levels"),
		MaxPromptWords:  cctx.Int("max-prompt-words"),

		LinkPostShare: cctx.Float64("link-post-share"),
		ReplyChance:   cctx.Float64("reply-chance"),
		TriggerWords:  pf.TriggerWords,

		FollowupOnly:     cctx.Bool("followup-only"),
		ForceTopReply:    cctx.Bool("force-top-reply"),
		ReplyWithoutRoot: cctx.Bool("reply-without-root"),
		LinkPostPolicy:   policy,

		Schedule:     pf.Schedule,
		PostInterval: time.Duration(pf.PostFrequency * float64(time.Hour)),

		Operator:          cctx.String("operator"),
		ReconfigurePrefix: cctx.String("reconfigure-prefix"),
		KillPhrase:        cctx.String("kill-phrase"),

		WatchComments: cctx.Bool("watch-comments"),
		SkipExisting:  cctx.Bool("skip-existing"),
	}

	client := platform.NewHTTPClient(host, cctx.String("platform-token"), community, cctx.Int("platform-rate-limit"), logger)
	ai := hfapi.NewClient(cctx.String("hf-api-token"), logger)

	var images engine.ImageMaker
	if imageHost := cctx.String("image-host"); imageHost != "" {
		logger.Info("image link posts enabled", "host", imageHost)
		images = &hfapi.ImageClient{Base: ai, Host: imageHost}
	}

	hold := persona.NewHolder(pf.Snapshot())
	block := keyword.NewList(pf.NegativeKeywords)
	threads := thread.NewBuilder(client, ai, cctx.String("caption-model"), logger)

	eng := engine.New(logger, client, ai, images, hold, block, threads, cfg)
	return &Server{logger: logger, engine: eng}, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.engine.Run(ctx); err != nil {
		return fmt.Errorf("running engagement engine: %w", err)
	}
	return nil
}
