package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/postpilotapp/postpilot/internal/models"
)

func TestDiscordPostText(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123","channel_id":"456"}`))
	}))
	defer srv.Close()

	adapter := NewDiscordAdapter(srv.Client())
	outcome := adapter.Post(context.Background(), "hello discord", nil, &models.PlatformCredential{
		DiscordWebhookURL: srv.URL,
	})

	if !outcome.OK {
		t.Fatalf("expected success, got %q", outcome.Detail)
	}
	if outcome.ExternalID != "123" {
		t.Errorf("expected message id 123, got %q", outcome.ExternalID)
	}
	if gotBody["content"] != "hello discord" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestDiscordPostWithMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart upload, got %s", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("bad multipart body: %v", err)
		}
		if r.FormValue("content") != "with image" {
			t.Errorf("unexpected content field: %q", r.FormValue("content"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	adapter := NewDiscordAdapter(srv.Client())
	outcome := adapter.Post(context.Background(), "with image", &Media{
		FileName: "photo.jpg",
		MIME:     "image/jpeg",
		Data:     []byte("fake image bytes"),
	}, &models.PlatformCredential{DiscordWebhookURL: srv.URL})

	if !outcome.OK {
		t.Fatalf("expected success, got %q", outcome.Detail)
	}
}

func TestDiscordPostServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := NewDiscordAdapter(srv.Client())
	outcome := adapter.Post(context.Background(), "hello", nil, &models.PlatformCredential{
		DiscordWebhookURL: srv.URL,
	})

	if outcome.OK {
		t.Fatal("expected failure on 404")
	}
	if !strings.Contains(outcome.Detail, "404") {
		t.Errorf("detail should carry the status code, got %q", outcome.Detail)
	}
}

func TestDiscordAnalyticsReportsEmptyCounts(t *testing.T) {
	adapter := NewDiscordAdapter(http.DefaultClient)
	m, err := adapter.Analytics(context.Background(), "123", &models.PlatformCredential{
		DiscordWebhookURL: "https://discord.com/api/webhooks/1/abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Likes != 0 || m.Shares != 0 || m.Reach != 0 {
		t.Errorf("webhook analytics should be empty, got %+v", m)
	}
}
