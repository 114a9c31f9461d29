package platform

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestHTTPClient(srv *httptest.Server) *HTTPClient {
	return &HTTPClient{
		Host:         srv.URL,
		Token:        "tok",
		Community:    "harborwatch",
		Client:       srv.Client(),
		Limiter:      rate.NewLimiter(rate.Inf, 1),
		Logger:       slog.Default(),
		PollInterval: time.Millisecond,
	}
}

func TestHTTPClientMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"username": "moxie"})
	}))
	defer srv.Close()

	me, err := newTestHTTPClient(srv).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "moxie", me)
}

func TestHTTPClientReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/things/t1_abc/replies", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("resolve"))
		json.NewEncoder(w).Encode([]*Comment{{ID: "t1_x", Author: "someone"}})
	}))
	defer srv.Close()

	replies, err := newTestHTTPClient(srv).Replies(context.Background(), "t1_abc")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "someone", replies[0].Author)
}

func TestHTTPClientStreamCursors(t *testing.T) {
	assert := assert.New(t)
	var seenAfter []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		seenAfter = append(seenAfter, after)
		switch after {
		case "":
			json.NewEncoder(w).Encode([]*Submission{{ID: "t3_1"}, {ID: "t3_2"}})
		case "t3_2":
			json.NewEncoder(w).Encode([]*Submission{{ID: "t3_3"}})
		default:
			json.NewEncoder(w).Encode([]*Submission{})
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := newTestHTTPClient(srv).StreamSubmissions(ctx, false)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 3; i++ {
		s := <-ch
		got = append(got, s.ID)
	}
	cancel()
	assert.Equal([]string{"t3_1", "t3_2", "t3_3"}, got)
	assert.Equal("", seenAfter[0], "first poll starts without a cursor")
}

func TestHTTPClientStreamClosesOnFault(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hc := newTestHTTPClient(srv)
	// drop the retry layer so the fault surfaces immediately
	hc.Client = &http.Client{}
	ch, err := hc.StreamSubmissions(context.Background(), false)
	require.NoError(t, err)

	_, open := <-ch
	assert.False(t, open, "stream channel must close on poll fault")
}
