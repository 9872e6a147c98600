package repository

import (
	"testing"

	"github.com/postpilotapp/postpilot/internal/models"
)

func TestMapByCanonicalPlatform(t *testing.T) {
	creds := []*models.PlatformCredential{
		{ID: 1, Platform: "X"},
		{ID: 2, Platform: "Facebook"},
		{ID: 3, Platform: "discord"},
	}

	byPlatform := mapByCanonicalPlatform(creds)

	if got := byPlatform["twitter"]; got == nil || got.ID != 1 {
		t.Errorf("expected X row under twitter key, got %+v", got)
	}
	if got := byPlatform["facebook"]; got == nil || got.ID != 2 {
		t.Errorf("expected Facebook row under facebook key, got %+v", got)
	}
	if got := byPlatform["discord"]; got == nil || got.ID != 3 {
		t.Errorf("expected discord row to stay put, got %+v", got)
	}
	if _, ok := byPlatform["X"]; ok {
		t.Error("raw alias must not appear as a map key")
	}
}
