package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/platform"
)

type fakeAdapter struct {
	name    string
	outcome platform.Outcome
	panics  bool
	gotText string
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Post(ctx context.Context, text string, media *platform.Media, creds *models.PlatformCredential) platform.Outcome {
	if f.panics {
		panic("adapter blew up")
	}
	f.gotText = text
	return f.outcome
}

func (f *fakeAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	return &models.RawMetrics{}, nil
}

func okOutcome(id string) platform.Outcome {
	return platform.Outcome{OK: true, ExternalID: id}
}

func creds(platforms ...string) map[string]*models.PlatformCredential {
	m := make(map[string]*models.PlatformCredential)
	for _, p := range platforms {
		m[p] = &models.PlatformCredential{Platform: p}
	}
	return m
}

func TestDispatchPartialFailure(t *testing.T) {
	adapters := map[string]platform.Adapter{
		"twitter":  &fakeAdapter{name: "twitter", outcome: okOutcome("t1")},
		"facebook": &fakeAdapter{name: "facebook", outcome: platform.Outcome{Detail: "facebook API error: 400"}},
		"discord":  &fakeAdapter{name: "discord", outcome: okOutcome("d1")},
	}
	d := NewDispatcher(adapters, time.Second)

	summary := d.Dispatch(context.Background(), "hello", nil, nil,
		[]string{"twitter", "facebook", "discord"}, creds("twitter", "facebook", "discord"))

	if len(summary.Successes) != 2 {
		t.Fatalf("expected 2 successes, got %d", len(summary.Successes))
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(summary.Failures))
	}
	if summary.Failures[0].Platform != "facebook" {
		t.Errorf("expected facebook to fail, got %s", summary.Failures[0].Platform)
	}
	if summary.AllSucceeded() {
		t.Error("AllSucceeded should be false on partial failure")
	}
	if !summary.AnySucceeded() {
		t.Error("AnySucceeded should be true on partial failure")
	}
}

func TestDispatchDisjointSets(t *testing.T) {
	adapters := map[string]platform.Adapter{
		"twitter":  &fakeAdapter{name: "twitter", outcome: okOutcome("t1")},
		"telegram": &fakeAdapter{name: "telegram", outcome: platform.Outcome{Detail: "boom"}},
	}
	d := NewDispatcher(adapters, time.Second)

	summary := d.Dispatch(context.Background(), "hi", nil, nil,
		[]string{"twitter", "telegram"}, creds("twitter", "telegram"))

	seen := make(map[string]int)
	for _, r := range summary.Successes {
		seen[r.Platform]++
	}
	for _, r := range summary.Failures {
		seen[r.Platform]++
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("platform %s appeared %d times across both sets", p, n)
		}
	}
	if len(seen) != 2 {
		t.Errorf("expected 2 platforms accounted for, got %d", len(seen))
	}
}

func TestDispatchPanicIsolation(t *testing.T) {
	adapters := map[string]platform.Adapter{
		"twitter":  &fakeAdapter{name: "twitter", panics: true},
		"discord":  &fakeAdapter{name: "discord", outcome: okOutcome("d1")},
		"telegram": &fakeAdapter{name: "telegram", outcome: okOutcome("tg1")},
	}
	d := NewDispatcher(adapters, time.Second)

	summary := d.Dispatch(context.Background(), "hi", nil, nil,
		[]string{"twitter", "discord", "telegram"}, creds("twitter", "discord", "telegram"))

	if len(summary.Successes) != 2 {
		t.Fatalf("expected 2 successes despite panic, got %d", len(summary.Successes))
	}
	if len(summary.Failures) != 1 || summary.Failures[0].Platform != "twitter" {
		t.Fatalf("expected panicking adapter to be the single failure, got %+v", summary.Failures)
	}
}

func TestDispatchCanonicalNames(t *testing.T) {
	twitter := &fakeAdapter{name: "twitter", outcome: okOutcome("t1")}
	d := NewDispatcher(map[string]platform.Adapter{"twitter": twitter}, time.Second)

	summary := d.Dispatch(context.Background(), "hi", nil, nil,
		[]string{"X"}, creds("twitter"))

	if len(summary.Successes) != 1 {
		t.Fatalf("expected X to resolve to twitter adapter, got %+v", summary.Failures)
	}
	if summary.Successes[0].Platform != "twitter" {
		t.Errorf("expected canonical platform name twitter, got %s", summary.Successes[0].Platform)
	}
}

func TestDispatchUnsupportedPlatform(t *testing.T) {
	d := NewDispatcher(map[string]platform.Adapter{}, time.Second)

	summary := d.Dispatch(context.Background(), "hi", nil, nil,
		[]string{"myspace"}, creds("myspace"))

	if len(summary.Failures) != 1 {
		t.Fatalf("expected unsupported platform to fail, got %+v", summary)
	}
	if summary.AnySucceeded() {
		t.Error("AnySucceeded should be false when nothing succeeded")
	}
}

func TestDispatchSkipsUncredentialedPlatforms(t *testing.T) {
	twitter := &fakeAdapter{name: "twitter", outcome: okOutcome("t1")}
	facebook := &fakeAdapter{name: "facebook", outcome: okOutcome("f1")}
	discord := &fakeAdapter{name: "discord", outcome: okOutcome("d1")}
	d := NewDispatcher(map[string]platform.Adapter{
		"twitter": twitter, "facebook": facebook, "discord": discord,
	}, time.Second)

	summary := d.Dispatch(context.Background(), "hello", nil, nil,
		[]string{"twitter", "facebook", "discord"}, creds("facebook", "discord"))

	if len(summary.Failures) != 0 {
		t.Fatalf("uncredentialed platform must be skipped, not failed, got %+v", summary.Failures)
	}
	if len(summary.Successes) != 2 {
		t.Fatalf("expected 2 successes, got %+v", summary.Successes)
	}
	if !summary.AllSucceeded() {
		t.Error("skipping twitter should leave AllSucceeded true")
	}
	if twitter.gotText != "" {
		t.Error("adapter without credentials must not be invoked")
	}
}

func TestDispatchPerPlatformTextOverride(t *testing.T) {
	twitter := &fakeAdapter{name: "twitter", outcome: okOutcome("t1")}
	discord := &fakeAdapter{name: "discord", outcome: okOutcome("d1")}
	d := NewDispatcher(map[string]platform.Adapter{"twitter": twitter, "discord": discord}, time.Second)

	texts := map[string]string{"twitter": "short version"}
	d.Dispatch(context.Background(), "long version", texts, nil,
		[]string{"twitter", "discord"}, creds("twitter", "discord"))

	if twitter.gotText != "short version" {
		t.Errorf("twitter should get its override, got %q", twitter.gotText)
	}
	if discord.gotText != "long version" {
		t.Errorf("discord should get the default text, got %q", discord.gotText)
	}
}
