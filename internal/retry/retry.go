// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry wraps a single source adapter call with bounded retries,
// exponential backoff, and a per-attempt deadline. A wrapped call never
// returns an error; failures become an Outcome carrying a SourceFailure.
package retry

import (
	"context"
	"time"

	"github.com/NikkiXIV/sci-paper-finder/internal/source"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// Policy controls how a source call is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry. It doubles for each
	// further retry up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// AttemptTimeout bounds each individual attempt. Zero means no
	// per-attempt deadline beyond the parent context.
	AttemptTimeout time.Duration
}

// NewPolicy builds a Policy from configuration, filling unset fields with
// the package defaults.
func NewPolicy(cfg types.RetryConfig) Policy {
	p := Policy{
		MaxAttempts:    cfg.MaxAttempts,
		BaseDelay:      cfg.BaseDelay,
		MaxDelay:       cfg.MaxDelay,
		AttemptTimeout: cfg.AttemptTimeout,
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = types.DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = types.DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = types.DefaultMaxDelay
	}
	if p.AttemptTimeout < 0 {
		p.AttemptTimeout = 0
	}
	return p
}

// Backoff returns the delay before retry n (0-based):
// min(BaseDelay * 2^n, MaxDelay).
func (p Policy) Backoff(n int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < n; i++ {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Attempt describes one failed try, reported through a Notify callback.
type Attempt struct {
	Source types.Source
	Number int
	Err    error
	Kind   types.ErrorKind

	// Backoff is the wait before the next try, or zero when the failure
	// is final.
	Backoff time.Duration
}

// Notify is called after every failed attempt. It must not block.
type Notify func(Attempt)

// Outcome is the result of a wrapped call. Exactly one of Papers (on
// success) or Failure is meaningful.
type Outcome struct {
	Source   types.Source
	Papers   []types.RawPaper
	Attempts int
	Elapsed  time.Duration
	Failure  *types.SourceFailure
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Failure == nil }

// Run calls adapter.Search under the policy. Unavailable and timeout
// failures are retried; parse failures and parent cancellation end the
// call immediately. Records are passed through as the adapter returned
// them; adapters own the limit bound.
func (p Policy) Run(ctx context.Context, adapter source.Adapter, query string, limit int, notify Notify) Outcome {
	src := adapter.Source()
	start := time.Now()
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	out := Outcome{Source: src}
	finish := func(err *source.Error) Outcome {
		out.Elapsed = time.Since(start)
		if err != nil {
			out.Papers = nil
			out.Failure = &types.SourceFailure{
				Source:   src,
				Kind:     err.Kind,
				Message:  err.Error(),
				Attempts: out.Attempts,
			}
		}
		return out
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return finish(cancelled(src, err))
		}

		out.Attempts++
		papers, err := p.attempt(ctx, adapter, query, limit)
		if err == nil {
			if papers == nil {
				papers = []types.RawPaper{}
			}
			out.Papers = papers
			return finish(nil)
		}

		serr := source.Classify(src, err)
		// A deadline hit by the parent, not the attempt, is cancellation.
		if ctx.Err() != nil {
			serr = cancelled(src, err)
		}

		final := !serr.Kind.Retryable() || attempt == maxAttempts-1
		var wait time.Duration
		if !final {
			wait = p.Backoff(attempt)
		}
		if notify != nil {
			notify(Attempt{Source: src, Number: out.Attempts, Err: serr, Kind: serr.Kind, Backoff: wait})
		}
		if final {
			return finish(serr)
		}

		if err := sleep(ctx, wait); err != nil {
			return finish(cancelled(src, err))
		}
	}
	return finish(source.Unavailable(src, nil))
}

func (p Policy) attempt(ctx context.Context, adapter source.Adapter, query string, limit int) ([]types.RawPaper, error) {
	if p.AttemptTimeout <= 0 {
		return adapter.Search(ctx, query, limit)
	}
	actx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return adapter.Search(actx, query, limit)
}

func cancelled(src types.Source, err error) *source.Error {
	return &source.Error{Source: src, Kind: types.KindCancelled, Err: err}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
