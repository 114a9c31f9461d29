// Package thread reconstructs bounded-depth conversational context for a
// reply target by walking its parent chain up toward the root submission.
package thread

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/moxie-social/moxie/platform"
)

type Turn struct {
	Author string
	Body   string
}

// Context is the assembled thread, root-first. Complete is false when the
// walk ran out of levels before reaching the root submission.
type Context struct {
	Turns    []Turn
	Complete bool
}

// Captioner describes link-post images so a textual root turn can stand in
// for the missing selftext.
type Captioner interface {
	Caption(ctx context.Context, model, imageURL string) (string, error)
}

type Builder struct {
	Client       platform.Client
	Captioner    Captioner
	CaptionModel string
	Logger       *slog.Logger

	// captions are stable per URL; avoid re-captioning on every rebuild
	captions *expirable.LRU[string, string]
}

func NewBuilder(client platform.Client, captioner Captioner, captionModel string, logger *slog.Logger) *Builder {
	return &Builder{
		Client:       client,
		Captioner:    captioner,
		CaptionModel: captionModel,
		Logger:       logger,
		captions:     expirable.NewLRU[string, string](256, nil, 24*time.Hour),
	}
}

// Build walks upward from target, prepending one turn per hop, for at most
// maxLevels hops. If the root submission is reached within the bound, its
// title and body (or image caption, for link posts) become the terminal
// root-first turn and the context is complete.
func (b *Builder) Build(ctx context.Context, target *platform.Comment, maxLevels int) (*Context, error) {
	tc := &Context{}
	cur := target
	for level := 0; level < maxLevels; level++ {
		tc.Turns = append([]Turn{{Author: cur.Author, Body: cur.Body}}, tc.Turns...)
		if platform.IsRootID(cur.ParentID) {
			sub, err := b.Client.Submission(ctx, cur.ParentID)
			if err != nil {
				return nil, fmt.Errorf("fetching root submission: %w", err)
			}
			rootBody, err := b.rootBody(ctx, sub)
			if err != nil {
				return nil, err
			}
			tc.Turns = append([]Turn{{Author: sub.Author, Body: rootBody}}, tc.Turns...)
			tc.Complete = true
			return tc, nil
		}
		parent, err := b.Client.Comment(ctx, cur.ParentID)
		if err != nil {
			return nil, fmt.Errorf("fetching parent comment: %w", err)
		}
		cur = parent
	}
	b.Logger.Info("thread context incomplete", "target", target.ID, "levels", maxLevels)
	return tc, nil
}

func (b *Builder) rootBody(ctx context.Context, sub *platform.Submission) (string, error) {
	if sub.IsSelf {
		return strings.TrimSpace(sub.Title + "\n" + sub.SelfText), nil
	}
	if cached, ok := b.captions.Get(sub.LinkURL); ok {
		return strings.TrimSpace(sub.Title + "\n" + cached), nil
	}
	caption, err := b.Captioner.Caption(ctx, b.CaptionModel, sub.LinkURL)
	if err != nil {
		return "", fmt.Errorf("captioning root post image: %w", err)
	}
	b.captions.Add(sub.LinkURL, caption)
	return strings.TrimSpace(sub.Title + "\n" + caption), nil
}

// Root builds a single-turn complete context for engaging directly with a
// submission rather than a comment.
func (b *Builder) Root(ctx context.Context, sub *platform.Submission) (*Context, error) {
	body, err := b.rootBody(ctx, sub)
	if err != nil {
		return nil, err
	}
	return &Context{
		Turns:    []Turn{{Author: sub.Author, Body: body}},
		Complete: true,
	}, nil
}

// Prompt renders the thread beneath the persona backstory, ready for the
// generation backend.
func (tc *Context) Prompt(backstory string) string {
	var sb strings.Builder
	sb.WriteString(backstory)
	sb.WriteString("\n\n")
	for _, turn := range tc.Turns {
		fmt.Fprintf(&sb, "%s said \"%s\"\n", turn.Author, turn.Body)
	}
	sb.WriteString("You reply: \"")
	return sb.String()
}

// Words counts whitespace-separated words across all turns, for the
// configured prompt length cap.
func (tc *Context) Words() int {
	n := 0
	for _, turn := range tc.Turns {
		n += len(strings.Fields(turn.Body))
	}
	return n
}
