package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("namespaced provider", func(t *testing.T) {
		provider, err := NewProvider("pubflow_test")

		require.NoError(t, err)
		assert.Equal(t, "pubflow_test", provider.Namespace())
		assert.NotNil(t, provider.MeterProvider())
		assert.NotNil(t, provider.Meter())
	})

	t.Run("empty namespace", func(t *testing.T) {
		provider, err := NewProvider("")

		require.NoError(t, err)
		assert.Empty(t, provider.Namespace())
	})
}

func TestProviderHandlerExposesRuntimeAndEventMetrics(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider("pubflow_test")
	require.NoError(t, err)

	businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
	require.NoError(t, err)
	businessMetrics.RecordOperation(ctx, "events", "event_process", "processed")

	body := scrape(t, provider)
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "pubflow_test_operations_total")
}

func TestProviderShutdown(t *testing.T) {
	t.Run("initialized provider", func(t *testing.T) {
		provider, err := NewProvider("pubflow_test")
		require.NoError(t, err)

		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("zero provider", func(t *testing.T) {
		provider := &Provider{}

		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}
