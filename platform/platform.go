// Package platform defines the social-platform client surface the engine
// drives. The engine is a pure orchestration layer: everything here is an
// interface over an external service, with an in-memory fake for tests.
package platform

import (
	"context"
	"strings"
)

// Item identifier prefixes, in the style of fullname IDs: comments are
// "t1_..." and submissions "t3_...".
const (
	CommentPrefix    = "t1_"
	SubmissionPrefix = "t3_"
)

// IsRootID reports whether an ID refers to a top-level submission.
func IsRootID(id string) bool {
	return strings.HasPrefix(id, SubmissionPrefix)
}

type Submission struct {
	ID       string
	Author   string
	Title    string
	SelfText string
	LinkURL  string
	IsSelf   bool
}

type Comment struct {
	ID           string
	Author       string
	Body         string
	ParentID     string
	SubmissionID string
}

type InboxKind string

const (
	InboxDM      = InboxKind("dm")
	InboxReply   = InboxKind("comment_reply")
	InboxMention = InboxKind("mention")
)

type InboxItem struct {
	ID     string
	Kind   InboxKind
	Author string
	Body   string
	// set for reply/mention items
	Comment *Comment
}

// Client is the social-platform collaborator. Implementations are expected
// to resolve lazily-paginated reply listings before returning from Replies,
// so dedup checks see the full set.
type Client interface {
	// Me resolves the agent's own username.
	Me(ctx context.Context) (string, error)

	// StreamSubmissions yields new submissions in the configured community.
	// With skipExisting, pre-existing backlog is not replayed. The channel
	// closes on stream fault; callers resubscribe.
	StreamSubmissions(ctx context.Context, skipExisting bool) (<-chan *Submission, error)
	StreamComments(ctx context.Context, skipExisting bool) (<-chan *Comment, error)
	StreamInbox(ctx context.Context, skipExisting bool) (<-chan *InboxItem, error)

	// Replies lists the direct replies of a comment or submission.
	Replies(ctx context.Context, id string) ([]*Comment, error)

	Submission(ctx context.Context, id string) (*Submission, error)
	Comment(ctx context.Context, id string) (*Comment, error)

	SubmitSelfPost(ctx context.Context, title, body, flair string) error
	SubmitLinkPost(ctx context.Context, title, linkURL, flair string) error
	Reply(ctx context.Context, parentID, body string) error

	MarkRead(ctx context.Context, itemID string) error
}
