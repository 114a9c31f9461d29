package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "moxie",
		Usage:   "autonomous persona engagement daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "platform-host",
			Usage:   "base URL of the platform gateway",
			EnvVars: []string{"MOXIE_PLATFORM_HOST"},
		},
		&cli.StringFlag{
			Name:    "platform-token",
			Usage:   "bearer token for the platform gateway",
			EnvVars: []string{"MOXIE_PLATFORM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "community",
			Usage:   "community the agent lives in",
			EnvVars: []string{"MOXIE_COMMUNITY"},
		},
		&cli.StringFlag{
			Name:    "hf-api-token",
			Usage:   "bearer token for the hosted inference API",
			EnvVars: []string{"HF_API_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "platform-rate-limit",
			Usage:   "max platform gateway requests per second",
			Value:   2,
			EnvVars: []string{"MOXIE_PLATFORM_RATE_LIMIT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the agent",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "persona-file",
			Usage:    "path to the YAML persona definition",
			Required: true,
			EnvVars:  []string{"MOXIE_PERSONA_FILE"},
		},
		&cli.StringFlag{
			Name:    "reply-model",
			Usage:   "generation model for replies",
			EnvVars: []string{"MOXIE_REPLY_MODEL"},
		},
		&cli.StringFlag{
			Name:    "post-model",
			Usage:   "generation model for posts; empty falls back to the persona one-shot strategy",
			EnvVars: []string{"MOXIE_POST_MODEL"},
		},
		&cli.StringFlag{
			Name:    "toxicity-model",
			EnvVars: []string{"MOXIE_TOXICITY_MODEL"},
		},
		&cli.StringFlag{
			Name:    "topic-model",
			Value:   "facebook/bart-large-mnli",
			EnvVars: []string{"MOXIE_TOPIC_MODEL"},
		},
		&cli.StringFlag{
			Name:    "pairwise-model",
			Value:   "sentence-transformers/all-MiniLM-L6-v2",
			EnvVars: []string{"MOXIE_PAIRWISE_MODEL"},
		},
		&cli.StringFlag{
			Name:    "caption-model",
			Value:   "nlpconnect/vit-gpt2-image-captioning",
			EnvVars: []string{"MOXIE_CAPTION_MODEL"},
		},
		&cli.StringFlag{
			Name:    "image-host",
			Usage:   "image generation service base URL; empty disables image link posts",
			EnvVars: []string{"MOXIE_IMAGE_HOST"},
		},
		&cli.StringFlag{
			Name:    "reply-params",
			Usage:   "JSON object of generation parameters for replies",
			Value:   "{}",
			EnvVars: []string{"MOXIE_REPLY_PARAMS"},
		},
		&cli.StringFlag{
			Name:    "post-params",
			Usage:   "JSON object of generation parameters for posts",
			Value:   "{}",
			EnvVars: []string{"MOXIE_POST_PARAMS"},
		},
		&cli.IntFlag{
			Name:    "character-budget",
			Usage:   "daily cap on characters submitted as generation input",
			Value:   50000,
			EnvVars: []string{"MOXIE_CHARACTER_BUDGET"},
		},
		&cli.IntFlag{
			Name:    "max-prompt-words",
			Value:   500,
			EnvVars: []string{"MOXIE_MAX_PROMPT_WORDS"},
		},
		&cli.IntFlag{
			Name:    "post-tries",
			Value:   3,
			EnvVars: []string{"MOXIE_POST_TRIES"},
		},
		&cli.DurationFlag{
			Name:    "retry-cooldown",
			Value:   30 * time.Second,
			EnvVars: []string{"MOXIE_RETRY_COOLDOWN"},
		},
		&cli.IntFlag{
			Name:    "max-levels",
			Usage:   "maximum thread depth walked when building reply context",
			Value:   6,
			EnvVars: []string{"MOXIE_MAX_LEVELS"},
		},
		&cli.Float64Flag{
			Name:    "toxicity-threshold",
			Usage:   "per-attribute toxicity ceiling",
			Value:   0.9,
			EnvVars: []string{"MOXIE_TOXICITY_THRESHOLD"},
		},
		&cli.Float64Flag{
			Name:    "min-relevance",
			Usage:   "minimum pairwise relevance for comment replies",
			Value:   0.5,
			EnvVars: []string{"MOXIE_MIN_RELEVANCE"},
		},
		&cli.Float64Flag{
			Name:    "link-post-share",
			Usage:   "probability a scheduled post is an image link post",
			Value:   0.25,
			EnvVars: []string{"MOXIE_LINK_POST_SHARE"},
		},
		&cli.Float64Flag{
			Name:    "reply-chance",
			Usage:   "reply probability when a trigger word matches",
			Value:   0.5,
			EnvVars: []string{"MOXIE_REPLY_CHANCE"},
		},
		&cli.BoolFlag{
			Name:    "followup-only",
			Usage:   "only reply to comments under the agent's own comments",
			EnvVars: []string{"MOXIE_FOLLOWUP_ONLY"},
		},
		&cli.BoolFlag{
			Name:    "force-top-reply",
			Usage:   "always reply to direct top-level replies, skipping relevance",
			EnvVars: []string{"MOXIE_FORCE_TOP_REPLY"},
		},
		&cli.BoolFlag{
			Name:    "reply-without-root",
			Usage:   "reply even when the thread context never reached the root post",
			EnvVars: []string{"MOXIE_REPLY_WITHOUT_ROOT"},
		},
		&cli.StringFlag{
			Name:    "link-post-policy",
			Usage:   "which submissions to consider: none, self-only, link-only, force-link-reply",
			Value:   "self-only",
			EnvVars: []string{"MOXIE_LINK_POST_POLICY"},
		},
		&cli.BoolFlag{
			Name:    "watch-comments",
			Usage:   "also triage every community comment, not just inbox items",
			EnvVars: []string{"MOXIE_WATCH_COMMENTS"},
		},
		&cli.BoolFlag{
			Name:    "skip-existing",
			Usage:   "ignore backlog already present when a stream starts",
			Value:   true,
			EnvVars: []string{"MOXIE_SKIP_EXISTING"},
		},
		&cli.StringFlag{
			Name:    "operator",
			Usage:   "username allowed to reconfigure or stop the agent via DM",
			EnvVars: []string{"MOXIE_OPERATOR"},
		},
		&cli.StringFlag{
			Name:    "reconfigure-prefix",
			Value:   "!persona ",
			EnvVars: []string{"MOXIE_RECONFIGURE_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "kill-phrase",
			EnvVars: []string{"MOXIE_KILL_PHRASE"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics",
			Value:   ":3989",
			EnvVars: []string{"MOXIE_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(logger, cctx)
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(err)
			}
		}()

		return srv.Run(ctx)
	},
}
