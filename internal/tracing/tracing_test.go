package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsStatusAndAttributes(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "flowkit.tool.invoke", "tool", "collect_name", "dangling")
	span.SetStatus(errors.New("boom"))
	span.End()

	_, ok := StartSpan(context.Background(), "flowkit.validate")
	ok.SetStatus(nil)
	ok.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "flowkit.tool.invoke", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("tool", "collect_name"))
	assert.Len(t, ended[0].Attributes(), 1)

	assert.Equal(t, codes.Ok, ended[1].Status().Code)
}

func TestSpan_NilSafe(t *testing.T) {
	var s *Span
	assert.NotPanics(t, func() {
		s.SetAttributes("k", "v")
		s.SetStatus(nil)
		s.End()
	})
}

func TestInitWithExporter_NilIsNoop(t *testing.T) {
	assert.NoError(t, InitWithExporter("flowkit", "test", nil))
}
