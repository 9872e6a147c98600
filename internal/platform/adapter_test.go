package platform

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestCanonicalName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"twitter", "twitter"},
		{"x", "twitter"},
		{"X", "twitter"},
		{" X ", "twitter"},
		{"Facebook", "facebook"},
		{"DISCORD", "discord"},
		{"telegram", "telegram"},
	}
	for _, c := range cases {
		if got := CanonicalName(c.in); got != c.want {
			t.Errorf("CanonicalName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDefaultRegistryCoversAllPlatforms(t *testing.T) {
	registry := DefaultRegistry(http.DefaultClient)
	for _, name := range []string{"twitter", "facebook", "instagram", "linkedin", "discord", "telegram"} {
		adapter, ok := registry[name]
		if !ok {
			t.Errorf("registry missing %s", name)
			continue
		}
		if adapter.Name() != name {
			t.Errorf("adapter registered under %s reports name %s", name, adapter.Name())
		}
	}
	if len(registry) != 6 {
		t.Errorf("expected 6 adapters, got %d", len(registry))
	}
}

func TestTrimText(t *testing.T) {
	if got := trimText("short", 280); got != "short" {
		t.Errorf("text under the limit should pass through, got %q", got)
	}

	long := strings.Repeat("a", 300)
	if got := trimText(long, 280); len([]rune(got)) != 280 {
		t.Errorf("expected 280 runes, got %d", len([]rune(got)))
	}

	// Multibyte runes must not be split.
	emoji := strings.Repeat("日", 10)
	got := trimText(emoji, 5)
	if got != strings.Repeat("日", 5) {
		t.Errorf("rune-safe trim failed, got %q", got)
	}
}

func TestAdaptersRejectMissingCredentials(t *testing.T) {
	registry := DefaultRegistry(http.DefaultClient)
	for name, adapter := range registry {
		outcome := adapter.Post(context.Background(), "hello", nil, nil)
		if outcome.OK {
			t.Errorf("%s should fail without credentials", name)
		}
		if outcome.Detail == "" {
			t.Errorf("%s should explain the failure", name)
		}
	}
}
