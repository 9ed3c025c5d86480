package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "", "unwind-the-bag", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracingEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "http://127.0.0.1:4318", "unwind-the-bag", "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// Nothing was recorded, so there is nothing to flush.
	_ = shutdown(ctx)
}
