package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestWithContext_AddsCatalogAndRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Get()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	ctx := WithCatalog(context.Background(), "sales_db")
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")
	WithContext(ctx).Info("listing tables")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "sales_db", fields["catalog"])
	assert.Equal(t, "req-1", fields["request_id"])
}
