package observability

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// SpanSnapshot is an immutable copy of a finished span.
type SpanSnapshot struct {
	Name        string
	SpanContext trace.SpanContext
	Parent      trace.SpanContext
	Status      sdktrace.Status
	StartTime   time.Time
	EndTime     time.Time
	Attributes  Attributes
}

// Snapshot copies the observable state of s. Later attributes win over
// earlier ones with the same key.
func Snapshot(s sdktrace.ReadOnlySpan) SpanSnapshot {
	kvs := s.Attributes()
	attrs := make(Attributes, len(kvs))
	for _, kv := range kvs {
		attrs[kv.Key] = kv.Value
	}
	return SpanSnapshot{
		Name:        s.Name(),
		SpanContext: s.SpanContext(),
		Parent:      s.Parent(),
		Status:      s.Status(),
		StartTime:   s.StartTime(),
		EndTime:     s.EndTime(),
		Attributes:  attrs,
	}
}

// Duration returns how long the span was open.
func (s SpanSnapshot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Attributes maps attribute keys to values of a finished span.
type Attributes map[attribute.Key]attribute.Value

// MissingAttributeError reports that a required attribute is absent.
type MissingAttributeError struct {
	Key attribute.Key
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("span attribute %q is missing", string(e.Key))
}

// AttributeTypeError reports that an attribute holds a value of the wrong type.
type AttributeTypeError struct {
	Key  attribute.Key
	Want attribute.Type
	Got  attribute.Type
}

func (e *AttributeTypeError) Error() string {
	return fmt.Sprintf("span attribute %q is %s, want %s", string(e.Key), e.Got, e.Want)
}

func (a Attributes) lookup(key attribute.Key, want attribute.Type) (attribute.Value, error) {
	v, ok := a[key]
	if !ok {
		return attribute.Value{}, &MissingAttributeError{Key: key}
	}
	if v.Type() != want {
		return attribute.Value{}, &AttributeTypeError{Key: key, Want: want, Got: v.Type()}
	}
	return v, nil
}

// String returns a string attribute.
func (a Attributes) String(key attribute.Key) (string, error) {
	v, err := a.lookup(key, attribute.STRING)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

// Int64 returns an integer attribute.
func (a Attributes) Int64(key attribute.Key) (int64, error) {
	v, err := a.lookup(key, attribute.INT64)
	if err != nil {
		return 0, err
	}
	return v.AsInt64(), nil
}

// Float64 returns a numeric attribute; integers are widened.
func (a Attributes) Float64(key attribute.Key) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, &MissingAttributeError{Key: key}
	}
	switch v.Type() {
	case attribute.FLOAT64:
		return v.AsFloat64(), nil
	case attribute.INT64:
		return float64(v.AsInt64()), nil
	default:
		return 0, &AttributeTypeError{Key: key, Want: attribute.FLOAT64, Got: v.Type()}
	}
}

// Bool returns a boolean attribute.
func (a Attributes) Bool(key attribute.Key) (bool, error) {
	v, err := a.lookup(key, attribute.BOOL)
	if err != nil {
		return false, err
	}
	return v.AsBool(), nil
}

// StringOr returns a string attribute or fallback when it is absent or not a string.
func (a Attributes) StringOr(key attribute.Key, fallback string) string {
	if s, err := a.String(key); err == nil {
		return s
	}
	return fallback
}
