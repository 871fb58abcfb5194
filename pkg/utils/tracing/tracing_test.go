package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsParentAndStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider, err := InitWithExporter("section-allocator", exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ctx, parent := StartSpan(context.Background(), "enrollment.run", attribute.String("policy", "balanced"))
	_, child := StartSpan(ctx, "enrollment.save")
	EndSpan(child, errors.New("insert failed"))
	EndSpan(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "enrollment.save", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "insert failed", spans[0].Status.Description)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())

	assert.Equal(t, "enrollment.run", spans[1].Name)
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
	assert.Contains(t, spans[1].Attributes, attribute.String("policy", "balanced"))
}

func TestInit_WritesTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")

	provider, err := Init("section-allocator", path)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "enrollment.load")
	EndSpan(span, nil)

	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "enrollment.load")
}

func TestShutdown_NilProvider(t *testing.T) {
	var provider *Provider
	assert.NoError(t, provider.Shutdown(context.Background()))
}
