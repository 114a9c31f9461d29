package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// HTTPClient talks to a platform gateway service over plain JSON/HTTP.
// Streams are cursor-based long polls. All calls go through a shared rate
// limiter so the three loops cannot jointly hammer the platform.
type HTTPClient struct {
	Host      string
	Token     string
	Community string
	Client    *http.Client
	Limiter   *rate.Limiter
	Logger    *slog.Logger

	// how often to poll when a stream returns nothing new
	PollInterval time.Duration
}

func NewHTTPClient(host, token, community string, callsPerSecond int, logger *slog.Logger) *HTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
	client := retryClient.StandardClient()
	client.Timeout = 30 * time.Second

	return &HTTPClient{
		Host:         host,
		Token:        token,
		Community:    community,
		Client:       client,
		Limiter:      rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		Logger:       logger,
		PollInterval: 15 * time.Second,
	}
}

func (hc *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := hc.Limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	u := hc.Host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+hc.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "moxie/"+versioninfo.Short())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := hc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("platform request failed: statusCode=%d path=%s", res.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading platform response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing platform response: %w", err)
	}
	return nil
}

func (hc *HTTPClient) Me(ctx context.Context) (string, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := hc.do(ctx, "GET", "/me", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// stream polls a cursor-paginated listing endpoint into a channel. The
// channel closes on the first poll fault; the owning loop resubscribes.
func stream[T any](ctx context.Context, hc *HTTPClient, path string, skipExisting bool, cursorOf func(T) string) (<-chan T, error) {
	q := url.Values{"community": {hc.Community}}

	var cursor string
	if skipExisting {
		// one priming poll to find the current tail
		var backlog []T
		if err := hc.do(ctx, "GET", path, q, nil, &backlog); err != nil {
			return nil, err
		}
		if len(backlog) > 0 {
			cursor = cursorOf(backlog[len(backlog)-1])
		}
	}

	ch := make(chan T, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(hc.PollInterval)
		defer ticker.Stop()
		for {
			q := url.Values{"community": {hc.Community}}
			if cursor != "" {
				q.Set("after", cursor)
			}
			var items []T
			if err := hc.do(ctx, "GET", path, q, nil, &items); err != nil {
				hc.Logger.Warn("stream poll failed", "path", path, "err", err)
				return
			}
			for _, item := range items {
				cursor = cursorOf(item)
				select {
				case ch <- item:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (hc *HTTPClient) StreamSubmissions(ctx context.Context, skipExisting bool) (<-chan *Submission, error) {
	return stream(ctx, hc, "/submissions", skipExisting, func(s *Submission) string { return s.ID })
}

func (hc *HTTPClient) StreamComments(ctx context.Context, skipExisting bool) (<-chan *Comment, error) {
	return stream(ctx, hc, "/comments", skipExisting, func(c *Comment) string { return c.ID })
}

func (hc *HTTPClient) StreamInbox(ctx context.Context, skipExisting bool) (<-chan *InboxItem, error) {
	return stream(ctx, hc, "/inbox", skipExisting, func(i *InboxItem) string { return i.ID })
}

func (hc *HTTPClient) Replies(ctx context.Context, id string) ([]*Comment, error) {
	var out []*Comment
	// resolve=all forces the gateway to expand lazy "more replies" pages
	q := url.Values{"resolve": {"all"}}
	if err := hc.do(ctx, "GET", "/things/"+id+"/replies", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (hc *HTTPClient) Submission(ctx context.Context, id string) (*Submission, error) {
	var out Submission
	if err := hc.do(ctx, "GET", "/submissions/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (hc *HTTPClient) Comment(ctx context.Context, id string) (*Comment, error) {
	var out Comment
	if err := hc.do(ctx, "GET", "/comments/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type submitReq struct {
	Community string `json:"community"`
	Title     string `json:"title"`
	SelfText  string `json:"selftext,omitempty"`
	LinkURL   string `json:"link_url,omitempty"`
	Flair     string `json:"flair,omitempty"`
}

func (hc *HTTPClient) SubmitSelfPost(ctx context.Context, title, body, flair string) error {
	return hc.do(ctx, "POST", "/submit", nil, submitReq{
		Community: hc.Community, Title: title, SelfText: body, Flair: flair,
	}, nil)
}

func (hc *HTTPClient) SubmitLinkPost(ctx context.Context, title, linkURL, flair string) error {
	return hc.do(ctx, "POST", "/submit", nil, submitReq{
		Community: hc.Community, Title: title, LinkURL: linkURL, Flair: flair,
	}, nil)
}

func (hc *HTTPClient) Reply(ctx context.Context, parentID, body string) error {
	return hc.do(ctx, "POST", "/things/"+parentID+"/reply", nil, map[string]string{"body": body}, nil)
}

func (hc *HTTPClient) MarkRead(ctx context.Context, itemID string) error {
	return hc.do(ctx, "POST", "/inbox/"+itemID+"/read", nil, nil, nil)
}

var _ Client = (*HTTPClient)(nil)
