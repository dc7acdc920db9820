package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("part") != "snippet" {
			t.Errorf("expected part=snippet, got %q", r.URL.Query().Get("part"))
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected key=test-key, got %q", r.URL.Query().Get("key"))
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestYouTubeClient_LiveStatus(t *testing.T) {
	tests := []struct {
		content string
		want    LiveStatus
	}{
		{"live", StatusLive},
		{"none", StatusEnded},
		{"upcoming", StatusUpcoming},
	}

	for _, tt := range tests {
		body := fmt.Sprintf(`{"items":[{"id":"CAbEy8xAKSE","snippet":{"liveBroadcastContent":%q}}]}`, tt.content)
		server := newServer(t, http.StatusOK, body)
		c := NewYouTubeClient(server.URL, "test-key", 5*time.Second)

		got, err := c.LiveStatus(context.Background(), "CAbEy8xAKSE")
		server.Close()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.content, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.content, tt.want, got)
		}
	}
}

func TestYouTubeClient_NotFound(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"items":[]}`)
	defer server.Close()

	c := NewYouTubeClient(server.URL, "test-key", 5*time.Second)
	if _, err := c.LiveStatus(context.Background(), "CAbEy8xAKSE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestYouTubeClient_Errors(t *testing.T) {
	server := newServer(t, http.StatusForbidden, `{"error":"quotaExceeded"}`)
	defer server.Close()

	c := NewYouTubeClient(server.URL, "test-key", 5*time.Second)
	if _, err := c.LiveStatus(context.Background(), "CAbEy8xAKSE"); err == nil {
		t.Error("expected error for 403")
	}

	unexpected := newServer(t, http.StatusOK, `{"items":[{"snippet":{"liveBroadcastContent":"weird"}}]}`)
	defer unexpected.Close()
	c = NewYouTubeClient(unexpected.URL, "test-key", 5*time.Second)
	if _, err := c.LiveStatus(context.Background(), "CAbEy8xAKSE"); err == nil {
		t.Error("expected error for unexpected status")
	}

	if _, err := c.LiveStatus(context.Background(), "not-a-video-id"); err == nil {
		t.Error("expected error for invalid id")
	}
}
