package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiranshivaraju/compass/internal/metrics"
	"github.com/kiranshivaraju/compass/pkg/models"
	"golang.org/x/time/rate"
)

// GuardOptions configures a guarded provider.
type GuardOptions struct {
	// Timeout bounds each call, including time spent waiting on the limiter.
	Timeout time.Duration
	// RequestsPerSecond and Burst configure the token bucket shared by
	// Generate and Embed. A zero rate disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Guarded wraps a raw provider with throttling, a per-call timeout and
// error classification. Callers only ever see the sentinel errors of this
// package, wrapped around the provider's own error.
type Guarded struct {
	inner   models.AIProvider
	limiter *rate.Limiter
	timeout time.Duration
}

// Guard wraps p. Every provider returned by NewProvider is already guarded.
func Guard(p models.AIProvider, opts GuardOptions) *Guarded {
	g := &Guarded{inner: p, timeout: opts.Timeout}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return g
}

func (g *Guarded) Name() string { return g.inner.Name() }

// Generate returns ErrInvalidResponse when the provider answers with blank text.
func (g *Guarded) Generate(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var (
		c   models.Completion
		err error
	)
	if err = g.wait(ctx); err == nil {
		c, err = g.inner.Generate(ctx, req)
	}
	if err == nil && strings.TrimSpace(c.Text) == "" {
		err = ErrInvalidResponse
	}
	g.observe("generate", start, err)
	if err != nil {
		return models.Completion{}, classify(ctx, err)
	}
	return c, nil
}

// Embed returns ErrInvalidResponse when the provider returns a different
// number of vectors than texts.
func (g *Guarded) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var (
		vecs [][]float32
		err  error
	)
	if err = g.wait(ctx); err == nil {
		vecs, err = g.inner.Embed(ctx, texts)
	}
	if err == nil && len(vecs) != len(texts) {
		err = fmt.Errorf("%w: got %d embeddings for %d texts", ErrInvalidResponse, len(vecs), len(texts))
	}
	g.observe("embed", start, err)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return vecs, nil
}

func (g *Guarded) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Guarded) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

func (g *Guarded) observe(op string, start time.Time, err error) {
	metrics.ModelCalls.WithLabelValues(g.inner.Name(), op, metrics.Outcome(err)).Inc()
	metrics.ModelDuration.WithLabelValues(g.inner.Name(), op).Observe(time.Since(start).Seconds())
}

// classify maps a raw provider error onto one of the package sentinels.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrInferenceTimeout),
		errors.Is(err, ErrEmbeddingsUnsupported),
		errors.Is(err, ErrProviderUnavailable):
		return err
	case errors.Is(err, errors.ErrUnsupported):
		return fmt.Errorf("%w: %v", ErrEmbeddingsUnsupported, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}

var _ models.AIProvider = (*Guarded)(nil)
