package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	assert.NotEmpty(t, root.TraceID)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, root.TraceID, GetTraceID(ctx))
	assert.Equal(t, root.SpanID, GetSpanID(ctx))

	child, _ := tracer.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.NotEqual(t, root.SpanID, child.SpanID)
}

func TestInjectTraceContext(t *testing.T) {
	headers := map[string]string{}
	InjectTraceContext(context.Background(), headers)
	assert.Empty(t, headers)

	ctx := WithTraceContext(context.Background(), "trace-1", "span-1")
	InjectTraceContext(ctx, headers)
	assert.Equal(t, map[string]string{TraceHeader: "trace-1", SpanHeader: "span-1"}, headers)
}

func TestTracerLogsSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("test", zap.New(core))

	span, _ := tracer.StartSpan(context.Background(), "ok")
	span.SetStatus(http.StatusOK)
	span.Finish()
	tracer.Submit(span)

	failed, _ := tracer.StartSpan(context.Background(), "failed")
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()
	tracer.Submit(span)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
	errored := logs.FilterMessage("span completed with error").All()
	require.Len(t, errored, 1)
	assert.Equal(t, int64(500), errored[0].ContextMap()["status"])
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("test", zap.New(core))

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/api/height", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/height", nil)
	req.Header.Set(TraceHeader, "upstream-trace")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, TraceID("upstream-trace"), seen)
	assert.Equal(t, "upstream-trace", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /api/height", fields["operation"])
	assert.Equal(t, "204", fields["http.status"])
}
