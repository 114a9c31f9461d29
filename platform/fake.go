package platform

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient is an in-memory Client for tests. Streams are plain channels
// fed by the test; submissions and reply threads are wired up with maps.
type FakeClient struct {
	Username string

	mu          sync.Mutex
	submissions map[string]*Submission
	comments    map[string]*Comment
	replies     map[string][]*Comment

	SubmissionCh chan *Submission
	CommentCh    chan *Comment
	InboxCh      chan *InboxItem

	// recorded outgoing actions
	SentReplies map[string]string
	SelfPosts   []Submission
	LinkPosts   []Submission
	ReadItems   []string
}

func NewFakeClient(username string) *FakeClient {
	return &FakeClient{
		Username:     username,
		submissions:  make(map[string]*Submission),
		comments:     make(map[string]*Comment),
		replies:      make(map[string][]*Comment),
		SubmissionCh: make(chan *Submission, 16),
		CommentCh:    make(chan *Comment, 16),
		InboxCh:      make(chan *InboxItem, 16),
		SentReplies:  make(map[string]string),
	}
}

func (f *FakeClient) AddSubmission(s *Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[s.ID] = s
}

func (f *FakeClient) AddComment(c *Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[c.ID] = c
	f.replies[c.ParentID] = append(f.replies[c.ParentID], c)
}

func (f *FakeClient) Me(ctx context.Context) (string, error) {
	return f.Username, nil
}

func (f *FakeClient) StreamSubmissions(ctx context.Context, skipExisting bool) (<-chan *Submission, error) {
	return f.SubmissionCh, nil
}

func (f *FakeClient) StreamComments(ctx context.Context, skipExisting bool) (<-chan *Comment, error) {
	return f.CommentCh, nil
}

func (f *FakeClient) StreamInbox(ctx context.Context, skipExisting bool) (<-chan *InboxItem, error) {
	return f.InboxCh, nil
}

func (f *FakeClient) Replies(ctx context.Context, id string) ([]*Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Comment{}, f.replies[id]...), nil
}

func (f *FakeClient) Submission(ctx context.Context, id string) (*Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return nil, fmt.Errorf("no such submission: %s", id)
	}
	return s, nil
}

func (f *FakeClient) Comment(ctx context.Context, id string) (*Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, fmt.Errorf("no such comment: %s", id)
	}
	return c, nil
}

func (f *FakeClient) SubmitSelfPost(ctx context.Context, title, body, flair string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SelfPosts = append(f.SelfPosts, Submission{Author: f.Username, Title: title, SelfText: body, IsSelf: true})
	return nil
}

func (f *FakeClient) SubmitLinkPost(ctx context.Context, title, linkURL, flair string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LinkPosts = append(f.LinkPosts, Submission{Author: f.Username, Title: title, LinkURL: linkURL})
	return nil
}

func (f *FakeClient) Reply(ctx context.Context, parentID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SentReplies[parentID] = body
	reply := &Comment{
		ID:       fmt.Sprintf("t1_fake%d", len(f.comments)+1),
		Author:   f.Username,
		Body:     body,
		ParentID: parentID,
	}
	f.comments[reply.ID] = reply
	f.replies[parentID] = append(f.replies[parentID], reply)
	return nil
}

func (f *FakeClient) MarkRead(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadItems = append(f.ReadItems, itemID)
	return nil
}

var _ Client = (*FakeClient)(nil)
