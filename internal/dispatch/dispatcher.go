package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/postpilotapp/postpilot/internal/metrics"
	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/platform"
)

// Result records the outcome of one platform attempt.
type Result struct {
	Platform string
	Outcome  platform.Outcome
}

// Summary partitions a fan-out into successes and failures. A platform
// appears in exactly one of the two slices.
type Summary struct {
	Successes []Result
	Failures  []Result
}

func (s Summary) AllSucceeded() bool {
	return len(s.Failures) == 0 && len(s.Successes) > 0
}

func (s Summary) AnySucceeded() bool {
	return len(s.Successes) > 0
}

// Dispatcher fans a single piece of content out to every requested
// platform. Adapters run concurrently; one failing or panicking adapter
// never affects the others.
type Dispatcher struct {
	adapters map[string]platform.Adapter
	timeout  time.Duration
}

func NewDispatcher(adapters map[string]platform.Adapter, timeout time.Duration) *Dispatcher {
	return &Dispatcher{adapters: adapters, timeout: timeout}
}

// Dispatch posts text and optional media to each named platform that has
// credentials. Platform names are canonicalized before lookup, so "X"
// resolves to the twitter adapter. Platforms without a credential entry
// are skipped, not failed; credentialed platforms without an adapter
// count as failures.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, texts map[string]string, media *platform.Media, platforms []string, creds map[string]*models.PlatformCredential) Summary {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	attempts := make([]string, 0, len(platforms))
	for _, name := range platforms {
		if _, ok := creds[platform.CanonicalName(name)]; !ok {
			slog.Info("skipping platform without credentials",
				slog.String("platform", platform.CanonicalName(name)))
			continue
		}
		attempts = append(attempts, name)
	}

	results := make([]Result, len(attempts))
	var wg sync.WaitGroup
	for i, name := range attempts {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = d.attempt(ctx, name, text, texts, media, creds)
		}(i, name)
	}
	wg.Wait()

	var summary Summary
	for _, r := range results {
		if r.Outcome.OK {
			metrics.PlatformPosts.WithLabelValues(r.Platform, "success").Inc()
			summary.Successes = append(summary.Successes, r)
		} else {
			metrics.PlatformPosts.WithLabelValues(r.Platform, "failure").Inc()
			summary.Failures = append(summary.Failures, r)
		}
	}
	return summary
}

func (d *Dispatcher) attempt(ctx context.Context, name, text string, texts map[string]string, media *platform.Media, creds map[string]*models.PlatformCredential) (result Result) {
	canonical := platform.CanonicalName(name)
	result.Platform = canonical

	defer func() {
		if r := recover(); r != nil {
			slog.Error("adapter panic recovered",
				slog.String("platform", canonical),
				slog.Any("panic", r))
			result.Outcome = platform.Outcome{
				Detail: fmt.Sprintf("internal error publishing to %s", canonical),
			}
		}
	}()

	adapter, ok := d.adapters[canonical]
	if !ok {
		result.Outcome = platform.Outcome{Detail: fmt.Sprintf("unsupported platform: %s", name)}
		return result
	}

	body := text
	if override, ok := texts[canonical]; ok && override != "" {
		body = override
	}

	attemptCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result.Outcome = adapter.Post(attemptCtx, body, media, creds[canonical])
	if !result.Outcome.OK {
		slog.Info("platform publish failed",
			slog.String("platform", canonical),
			slog.String("detail", result.Outcome.Detail))
	}
	return result
}
