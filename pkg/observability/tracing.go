// Package observability wires OpenTelemetry tracing into Metacat. Spans are
// named after the catalog operation they cover, e.g.
// "connector.factory.construct", and carry the catalog name as an attribute.
package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultServiceName = "metacat"

var (
	mu     sync.RWMutex
	tracer trace.Tracer
)

// Install sets tp as the global provider and derives the package tracer from it
func Install(tp trace.TracerProvider, name string) {
	otel.SetTracerProvider(tp)
	mu.Lock()
	tracer = tp.Tracer(name)
	mu.Unlock()
}

// Tracer returns the package tracer, falling back to the global provider
func Tracer() trace.Tracer {
	mu.RLock()
	t := tracer
	mu.RUnlock()
	if t != nil {
		return t
	}
	return otel.Tracer(defaultServiceName)
}

// CatalogTracer starts spans scoped to one catalog
type CatalogTracer struct {
	catalog string
}

// NewCatalogTracer creates a tracer for catalog
func NewCatalogTracer(catalog string) *CatalogTracer {
	return &CatalogTracer{catalog: catalog}
}

// StartSpan starts a span tagged with the catalog name
func (ct *CatalogTracer) StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("catalog.name", ct.catalog))
	return Tracer().Start(ctx, operation, trace.WithAttributes(attrs...))
}

// Trace runs fn inside a span and records its error
func (ct *CatalogTracer) Trace(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := ct.StartSpan(ctx, operation)
	defer span.End()

	err := fn(ctx)
	RecordError(span, err)
	return err
}

// RecordError marks span as failed when err is non-nil
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
