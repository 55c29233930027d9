// Package services implements the business operations of the user service
// on top of the repositories, the object store and the event publisher.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/userservice/internal/server/services")

// IDGenerator returns a new opaque row id.
type IDGenerator func() string

// SeededIDs prefixes random UUIDs with seed, so ids from different
// deployments never collide in shared fixtures.
func SeededIDs(seed string) IDGenerator {
	return func() string { return seed + uuid.NewString() }
}

// bounded applies the per-call storage deadline when one is configured.
func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
