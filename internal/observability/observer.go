// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/NikkiXIV/sci-paper-finder/internal/aggregate"
	"github.com/NikkiXIV/sci-paper-finder/internal/retry"
	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// LogObserver writes search events to a zerolog logger. Per-source
// failures are warnings; a search in which every source failed is an error.
type LogObserver struct {
	Log zerolog.Logger
}

var _ aggregate.Observer = LogObserver{}

// NewLogObserver returns a LogObserver writing to log.
func NewLogObserver(log zerolog.Logger) LogObserver {
	return LogObserver{Log: log}
}

func (o LogObserver) SourceStarted(src types.Source) {
	o.Log.Debug().Str("source", string(src)).Msg("source started")
}

func (o LogObserver) AttemptFailed(a retry.Attempt) {
	ev := o.Log.Debug().
		Str("source", string(a.Source)).
		Int("attempt", a.Number).
		Str("kind", string(a.Kind)).
		Err(a.Err)
	if a.Backoff > 0 {
		ev = ev.Dur("backoff", a.Backoff)
	}
	ev.Msg("source attempt failed")
}

func (o LogObserver) SourceSucceeded(src types.Source, papers, attempts int, elapsed time.Duration) {
	o.Log.Info().
		Str("source", string(src)).
		Int("papers", papers).
		Int("attempts", attempts).
		Dur("elapsed", elapsed).
		Msg("source succeeded")
}

func (o LogObserver) SourceFailed(f types.SourceFailure, elapsed time.Duration) {
	o.Log.Warn().
		Str("source", string(f.Source)).
		Str("kind", string(f.Kind)).
		Int("attempts", f.Attempts).
		Dur("elapsed", elapsed).
		Msg(f.Message)
}

func (o LogObserver) SearchCompleted(req types.SearchRequest, res types.SearchResult, elapsed time.Duration) {
	ev := o.Log.Info()
	msg := "search completed"
	if res.AllSourcesFailed() {
		ev = o.Log.Error()
		msg = "all sources failed"
	}
	ev.Str("query", req.Query).
		Int("papers", len(res.Papers)).
		Int("failed_sources", len(res.Failures)).
		Int("duplicates_removed", res.DuplicatesRemoved).
		Int("skipped", res.Skipped).
		Dur("elapsed", elapsed).
		Msg(msg)
}
