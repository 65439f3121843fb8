package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// SensitiveDataSpanName names spans opened by LogSensitiveData.
	SensitiveDataSpanName = "sensitive_data_logged"
	// SensitiveDataAttribute flags spans that carry raw user content.
	SensitiveDataAttribute = attribute.Key("contains_sensitive_data")
)

// MarkSensitive flags span as carrying sensitive data.
func MarkSensitive(span trace.Span) {
	span.SetAttributes(SensitiveDataAttribute.String("true"))
}

// AddSensitiveEvent records an event with sensitive attributes and flags the span.
func AddSensitiveEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
	MarkSensitive(span)
}

// LogSensitiveData records message in a dedicated span. The message is also
// written to the logger when printToConsole is set and the runtime runs in
// development mode.
func (r *Runtime) LogSensitiveData(ctx context.Context, message string, attrs []attribute.KeyValue, printToConsole bool) {
	_, span := r.tracer.Start(ctx, SensitiveDataSpanName)
	defer span.End()

	AddSensitiveEvent(span, message, attrs...)

	if printToConsole && r.IsDevelopment() {
		fields := make([]zap.Field, 0, len(attrs))
		for _, kv := range attrs {
			fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
		}
		r.logger.Info(message, fields...)
	}
}
