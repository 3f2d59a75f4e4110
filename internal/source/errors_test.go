// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

func TestErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name string
		err  *Error
		want error
	}{
		{"unavailable", Unavailable(types.SourceArxiv, cause), ErrUnavailable},
		{"timeout", Timeout(types.SourceArxiv, cause), ErrTimeout},
		{"parse", ParseError(types.SourceArxiv, cause), ErrParse},
		{"cancelled", &Error{Source: types.SourceArxiv, Kind: types.KindCancelled, Err: cause}, ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.want))
			assert.True(t, errors.Is(tt.err, cause), "cause must stay reachable")
			assert.Contains(t, tt.err.Error(), "arxiv")
			assert.Contains(t, tt.err.Error(), "connection reset")
		})
	}
}

func TestErrorWithoutCause(t *testing.T) {
	e := &Error{Source: types.SourcePubMed, Kind: types.KindTimeout}
	assert.Equal(t, "pubmed: timeout", e.Error())
	assert.True(t, errors.Is(e, ErrTimeout))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, types.KindTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), types.KindTimeout},
		{"canceled", context.Canceled, types.KindCancelled},
		{"parse sentinel", fmt.Errorf("bad: %w", ErrParse), types.KindParse},
		{"timeout sentinel", ErrTimeout, types.KindTimeout},
		{"plain", errors.New("boom"), types.KindUnavailable},
		{"already classified", fmt.Errorf("outer: %w", ParseError(types.SourceArxiv, nil)), types.KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(types.SourcePubMed, tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(types.SourceArxiv, nil))
	assert.Equal(t, types.ErrorKind(""), KindOf(nil))
}

func TestClassifyFillsMissingSourceWithoutMutating(t *testing.T) {
	orig := Timeout("", errors.New("slow"))

	got := Classify(types.SourceArxiv, orig)
	assert.Equal(t, types.SourceArxiv, got.Source)
	assert.Equal(t, types.Source(""), orig.Source)

	keep := Timeout(types.SourcePubMed, nil)
	assert.Same(t, keep, Classify(types.SourceArxiv, keep))
}
