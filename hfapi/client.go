// Package hfapi holds clients for the hosted-inference collaborators: text
// generation, toxicity scoring, zero-shot topic classification, pairwise
// relevance, image captioning, and image generation.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hashicorp/go-retryablehttp"
)

const DefaultHost = "https://api-inference.huggingface.co"

// how many times to wait out a "model loading" response before giving up
const maxLoadRetries = 3

// ErrPermanent marks upstream failures that must not be retried (bad
// request, auth failure, model not found). Everything else is transient.
var ErrPermanent = errors.New("permanent inference failure")

func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

type Client struct {
	Host   string
	Token  string
	Client *http.Client
	Logger *slog.Logger

	// swapped out in tests to skip real model-loading waits
	sleep func(time.Duration)
}

func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		Host:   DefaultHost,
		Token:  token,
		Client: robustHTTPClient(logger),
		Logger: logger,
		sleep:  time.Sleep,
	}
}

// Generates an HTTP client with general-purpose timeout and retry defaults,
// with Hashicorp retryablehttp logic internally. Retries connection errors,
// 5xx (except 501), and 429 respecting 'Retry-After'.
func robustHTTPClient(logger *slog.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
	client := retryClient.StandardClient()
	client.Timeout = 60 * time.Second
	return client
}

func jsonBody(v any) ([]byte, error) {
	return json.Marshal(v)
}

type loadingResp struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// query POSTs a JSON payload to a hosted model and decodes the JSON response
// into out. A 503 carrying an estimated_time means the model is still being
// loaded upstream; the call waits the server-suggested delay and retries, a
// bounded number of times. 4xx responses abort immediately as permanent.
func (c *Client) query(ctx context.Context, model string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding inference payload: %w", err)
	}
	return c.post(ctx, c.Host+"/models/"+model, "application/json", body, out)
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "moxie/"+versioninfo.Short())

		start := time.Now()
		res, err := c.Client.Do(req)
		inferenceAPIDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("inference request failed: %w", err)
		}

		respBytes, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return fmt.Errorf("reading inference response: %w", err)
		}
		inferenceAPICount.WithLabelValues(fmt.Sprint(res.StatusCode)).Inc()

		switch {
		case res.StatusCode == http.StatusOK:
			if err := json.Unmarshal(respBytes, out); err != nil {
				return fmt.Errorf("parsing inference response: %w", err)
			}
			return nil
		case res.StatusCode == http.StatusServiceUnavailable:
			var lr loadingResp
			if json.Unmarshal(respBytes, &lr) == nil && lr.EstimatedTime > 0 && attempt < maxLoadRetries {
				wait := time.Duration(lr.EstimatedTime * float64(time.Second))
				if wait > 2*time.Minute {
					wait = 2 * time.Minute
				}
				c.Logger.Info("model loading upstream, waiting", "url", url, "wait", wait, "attempt", attempt)
				c.sleep(wait)
				continue
			}
			return fmt.Errorf("inference unavailable: statusCode=%d", res.StatusCode)
		case res.StatusCode >= 400 && res.StatusCode < 500:
			return fmt.Errorf("inference rejected request (statusCode=%d): %w", res.StatusCode, ErrPermanent)
		default:
			return fmt.Errorf("inference request failed: statusCode=%d", res.StatusCode)
		}
	}
}
