package oioproxy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAndDoRetriesTransportErrors(t *testing.T) {
	var tried []string
	err := resolveAndDo(context.Background(), "ref", "meta2", []string{"a", "b", "c"}, nil,
		func(ctx context.Context, addr string) error {
			tried = append(tried, addr)
			if addr == "c" {
				return nil
			}
			return TransportError("meta2", errors.New("connection refused"))
		})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, tried)
}

func TestResolveAndDoStopsOnApplicationError(t *testing.T) {
	var tried []string
	var decached bool
	err := resolveAndDo(context.Background(), "ref", "meta2", []string{"a", "b"}, func() { decached = true },
		func(ctx context.Context, addr string) error {
			tried = append(tried, addr)
			return ErrContentNotFound("obj")
		})
	require.Error(t, err)
	require.Equal(t, []string{"a"}, tried, "application errors are terminal, no further candidates")
	require.True(t, decached)
}

func TestResolveAndDoNoCandidates(t *testing.T) {
	err := resolveAndDo(context.Background(), "ref", "meta2", nil, nil,
		func(ctx context.Context, addr string) error { return nil })
	require.Error(t, err)
	var oe *Error
	require.ErrorAs(t, err, &oe)
	require.Equal(t, CodeNoServiceLinked, oe.Code())
}

func TestResolveAndDoReturnsLastTransportErrorWhenAllFail(t *testing.T) {
	err := resolveAndDo(context.Background(), "ref", "meta2", []string{"a", "b"}, nil,
		func(ctx context.Context, addr string) error {
			return TransportError("meta2", errors.New(addr+" unreachable"))
		})
	require.Error(t, err)
	require.Contains(t, err.Error(), "b unreachable")
}
