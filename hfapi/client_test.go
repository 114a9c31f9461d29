package hfapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		Host:   srv.URL,
		Token:  "test-token",
		Client: srv.Client(),
		Logger: slog.Default(),
		sleep:  func(time.Duration) {},
	}
}

func TestGenerateModelLoadingRetry(t *testing.T) {
	assert := assert.New(t)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": "Model is currently loading", "estimated_time": 20.0}`))
			return
		}
		w.Write([]byte(`[{"generated_text": "hello there"}]`))
	}))
	defer srv.Close()

	c := testClient(srv)
	out, err := c.Generate(context.Background(), "some/model", "prompt", nil)
	require.NoError(t, err)
	assert.Equal([]string{"hello there"}, out)
	assert.Equal(2, calls)
}

func TestGenerateClientErrorIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv)
	_, err := c.Generate(context.Background(), "some/model", "prompt", nil)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls, "no retry on client error")
}

func TestToxicityDecode(t *testing.T) {
	assert := assert.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// two classes: one pure-nsfw at 0.6, one nsfw+hate at 0.2
		w.Write([]byte(`[[{"label": "[1, 0, 0]", "score": 0.6}, {"label": "[1, 1, 0]", "score": 0.2}]]`))
	}))
	defer srv.Close()

	c := testClient(srv)
	scores, err := c.Toxicity(context.Background(), "", "some text")
	require.NoError(t, err)
	assert.InDelta(0.8, scores["nsfw"], 1e-9)
	assert.InDelta(0.2, scores["hate"], 1e-9)
	assert.InDelta(0.0, scores["threat"], 1e-9)
}

func TestZeroShot(t *testing.T) {
	assert := assert.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"labels": ["sailing", "weather"], "scores": [0.9, 0.7]}`))
	}))
	defer srv.Close()

	c := testClient(srv)
	scores, err := c.ZeroShot(context.Background(), "some/model", "a text", []string{"sailing", "weather"})
	require.NoError(t, err)
	assert.Equal(0.9, scores["sailing"])
	assert.Equal(0.7, scores["weather"])
}

func TestPairwise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[0.42]`))
	}))
	defer srv.Close()

	c := testClient(srv)
	score, err := c.Pairwise(context.Background(), "some/model", "parent text", "candidate text")
	require.NoError(t, err)
	assert.Equal(t, 0.42, score)
}
