package platform

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/postpilotapp/postpilot/internal/models"
)

// Outcome is one adapter's answer to a publish attempt. Adapters never
// return errors for platform failures; everything past the credential
// check collapses into OK plus a diagnostic.
type Outcome struct {
	OK         bool           `json:"ok"`
	ExternalID string         `json:"external_id,omitempty"`
	PostURL    string         `json:"post_url,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Adapter publishes one payload to one platform and can fetch that
// platform's metrics for a post. Implementations are stateless; callers
// inject credentials per invocation.
type Adapter interface {
	Name() string
	Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome
	Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error)
}

// CanonicalName is the single normalization point for platform names.
// "x" is an alias for "twitter"; matching is case-insensitive.
func CanonicalName(platform string) string {
	name := strings.ToLower(strings.TrimSpace(platform))
	if name == "x" {
		return "twitter"
	}
	return name
}

// DefaultRegistry wires one adapter per supported platform, keyed by
// canonical name. The client carries the per-call timeout budget.
func DefaultRegistry(client *http.Client) map[string]Adapter {
	adapters := []Adapter{
		NewTwitterAdapter(client),
		NewFacebookAdapter(client),
		NewInstagramAdapter(client),
		NewLinkedinAdapter(client),
		NewDiscordAdapter(client),
		NewTelegramAdapter(client),
	}

	registry := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		registry[a.Name()] = a
	}
	return registry
}

func notConfigured(platform string) Outcome {
	return Outcome{OK: false, Detail: fmt.Sprintf("%s credentials not configured", platform)}
}

func failure(format string, args ...any) Outcome {
	return Outcome{OK: false, Detail: fmt.Sprintf(format, args...)}
}

// trimText bounds text to a platform's character limit without splitting
// the payload midway through a rune.
func trimText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
