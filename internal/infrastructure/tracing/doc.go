/*
Package tracing provides lightweight request tracing.

Every HTTP request gets a span. Trace context arrives and leaves through the
X-Trace-ID and X-Span-ID headers, so a probe started by a traced request
carries the same trace ID to the DocuSeal host. Finished spans are collected
on a buffered channel and logged through zap.

# Usage

	tracer := tracing.New("docuseal-embed", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
