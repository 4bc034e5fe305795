package observability

import (
	"context"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer records store calls and graph refreshes as X-Ray subsegments. Without a
// parent segment in ctx, as outside a traced Lambda invocation, work runs untraced.
type Tracer struct {
	service string
}

// NewTracer creates a tracer that annotates subsegments with service
func NewTracer(service string) *Tracer {
	return &Tracer{service: service}
}

// TraceFunction runs fn inside a subsegment named name
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	if xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSubsegment(ctx, name)
	if seg == nil {
		return fn(ctx)
	}
	_ = seg.AddAnnotation("service", t.service)

	start := time.Now()
	err := fn(ctx)
	_ = seg.AddMetadata("duration_ms", time.Since(start).Milliseconds())
	seg.Close(err)
	return err
}
