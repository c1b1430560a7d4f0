package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailure(t *testing.T) {
	t.Run("error string", func(t *testing.T) {
		f := NewFailure(FailureNoRoute, "no destinations defined")
		assert.Equal(t, "no_route: no destinations defined", f.Error())

		f = NewHTTPFailure(errors.New("connection refused"), "http://endpoint/", "10.0.0.1")
		assert.Equal(t, "http: connection refused (http://endpoint/)", f.Error())
	})

	t.Run("wrap keeps the cause", func(t *testing.T) {
		inner := NewHTTPFailure(context.DeadlineExceeded, "http://target/", "")
		f := WrapFailure(FailureRelay, fmt.Errorf("fetch: %w", inner))
		assert.Equal(t, FailureRelay, f.Kind)
		assert.Same(t, inner, f.Cause)
		assert.True(t, errors.Is(f, context.DeadlineExceeded))
		assert.True(t, errors.Is(f, &Failure{Kind: FailureHTTP}))
		assert.False(t, errors.Is(f, &Failure{Kind: FailureNoRoute}))
	})

	t.Run("internal link", func(t *testing.T) {
		f := NewHTTPFailure(context.DeadlineExceeded, "http://dispatcher/", "10.0.0.2")
		assert.True(t, f.IsHTTP())

		link := f.AsInternalLink()
		assert.Equal(t, FailureInternalLink, link.Kind)
		assert.True(t, link.IsHTTP())
		assert.Equal(t, f.Message, link.Message)
		assert.Equal(t, f.LastURL, link.LastURL)
		assert.Equal(t, f.LastIP, link.LastIP)
		assert.True(t, errors.Is(link, context.DeadlineExceeded))
		assert.Equal(t, FailureHTTP, f.Kind)
	})

	t.Run("kinds", func(t *testing.T) {
		for _, kind := range FailureKinds {
			assert.True(t, kind.Valid())
		}
		assert.False(t, FailureKind("exploded").Valid())
		assert.False(t, NewFailure(FailureRelay, "x").IsHTTP())
		assert.Equal(t, FailureEnvelopeDecode, KindOf(fmt.Errorf("x: %w", NewFailure(FailureEnvelopeDecode, "y"))))
		assert.Equal(t, FailureKind(""), KindOf(errors.New("plain")))
	})
}

func TestNewRequest(t *testing.T) {
	req := NewRequest("GET", "https://example.com")
	assert.True(t, req.VerifyPeer)
	assert.True(t, req.VerifyHost)
	assert.Equal(t, DefaultConnectTimeoutMs, req.ConnectTimeoutMs)
	assert.Equal(t, DefaultRequestTimeoutMs, req.RequestTimeoutMs)
	assert.False(t, req.HasPostFields())
	assert.Equal(t, "GET https://example.com", req.String())
}
