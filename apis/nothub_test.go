package apis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseFeedEvent(t *testing.T) {
	state, err := parseFeedEvent(`{"state": "alert"}`)
	if err != nil || state.State != "alert" {
		t.Errorf("parseFeedEvent() = %+v, %v", state, err)
	}
	if _, err := parseFeedEvent(`alert`); err == nil {
		t.Error("parseFeedEvent() accepted non-JSON data")
	}
}

func TestSubscribeStatusFeed(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/updates" {
			http.NotFound(w, r)
			return
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "light" || pass != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for i, state := range []string{"alert", "alert", "ok"} {
			fmt.Fprintf(w, "id: %d\ndata: {\"state\": %q}\n\n", i, state)
		}
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer srv.Close()
	defer srv.CloseClientConnections()
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := SubscribeStatusFeed(ctx, HTTPCredentials{
		BaseURL:  srv.URL,
		Username: "light",
		Password: "secret",
	}, zap.NewNop())

	for _, want := range []string{"alert", "ok"} {
		select {
		case got := <-events:
			if got.State != want {
				t.Errorf("state = %q, want %q", got.State, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestSubscribeStatusFeed_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := SubscribeStatusFeed(ctx, HTTPCredentials{BaseURL: url}, zap.NewNop())

	select {
	case got := <-events:
		if got.State != FeedOffline {
			t.Errorf("state = %q, want %q", got.State, FeedOffline)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for offline state")
	}
}
