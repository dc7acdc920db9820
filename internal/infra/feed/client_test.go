package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
)

func TestClient_Live(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-APIKEY") != "secret" {
			t.Errorf("expected api key header, got %q", r.Header.Get("X-APIKEY"))
		}
		if r.URL.Query().Get("type") != "stream,placeholder" {
			t.Errorf("unexpected type param %q", r.URL.Query().Get("type"))
		}
		if r.URL.Query().Get("max_upcoming_hours") != "168" {
			t.Errorf("unexpected max_upcoming_hours %q", r.URL.Query().Get("max_upcoming_hours"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"CAbEy8xAKSE","title":"Morning Stream","type":"stream","status":"live",
			 "start_scheduled":"2024-05-01T10:00:00.000Z",
			 "channel":{"id":"UC1","name":"Chan One","english_name":"Channel One"}},
			{"id":"ph1","title":"Twitch Collab","type":"placeholder","status":"live",
			 "placeholderType":"external-stream","link":"https://www.twitch.tv/someone",
			 "channel":{"id":"UC2","name":"Chan Two"}},
			{"title":"no id","type":"stream","channel":{"id":"UC3"}}
		]`))
	}))
	defer server.Close()

	c, err := NewClient(Config{URL: server.URL, APIKey: "secret", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	records, err := c.Live(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Kind != domain.RecordKindStream || first.ChannelID != "UC1" || first.ChannelName != "Channel One" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.StartScheduled == nil {
		t.Error("expected start_scheduled to be parsed")
	}

	second := records[1]
	if !second.IsLiveExternal() {
		t.Errorf("expected live external placeholder, got %+v", second)
	}
	if second.ChannelName != "Chan Two" {
		t.Errorf("expected fallback channel name, got %q", second.ChannelName)
	}
}

func TestClient_Live_Errors(t *testing.T) {
	statusServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer statusServer.Close()

	c, _ := NewClient(Config{URL: statusServer.URL})
	if _, err := c.Live(context.Background()); err == nil {
		t.Error("expected error for 503")
	}

	badJSON := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"not an array"}`))
	}))
	defer badJSON.Close()

	c, _ = NewClient(Config{URL: badJSON.URL})
	if _, err := c.Live(context.Background()); err == nil {
		t.Error("expected error for malformed payload")
	}
}
