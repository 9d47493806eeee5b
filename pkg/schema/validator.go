package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/internal/metrics"
	"github.com/aretw0/flowkit/internal/tracing"
	"github.com/getkin/kin-openapi/openapi3"
)

// UnexpectedPrefix starts the message of every result caused by something other than the data
// itself (a malformed schema, unencodable data, an engine fault).
const UnexpectedPrefix = "Unexpected validation error: "

// Result is the outcome of a validation. Failures are values, never errors.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Unexpected reports whether the failure came from something other than the data.
func (r Result) Unexpected() bool {
	return !r.Valid && strings.HasPrefix(r.Error, UnexpectedPrefix)
}

// Validator checks data records against schema contracts.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used to report failures.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithMetrics sets the recorder for validation outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// NewValidator creates a Validator. Without WithLogger nothing is logged.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks data against src.
//
// A data failure yields "Validation error at <dotted.path>: <message>", where the path is the
// first offending property (empty at the document root; a missing required property is reported
// at its parent object). Any other failure yields a message starting with UnexpectedPrefix.
func (v *Validator) Validate(ctx context.Context, data map[string]any, src Source) (res Result) {
	ctx, span := tracing.StartSpan(ctx, "flowkit.validate")
	defer func() {
		if r := recover(); r != nil {
			res = v.unexpected(ctx, fmt.Errorf("panic: %v", r))
		}
		span.SetAttributes("valid", strconv.FormatBool(res.Valid))
		span.End()
	}()

	s, err := v.prepare(ctx, src)
	if err != nil {
		return v.unexpected(ctx, err)
	}

	value, err := normalizeData(data)
	if err != nil {
		return v.unexpected(ctx, fmt.Errorf("encode data: %w", err))
	}

	if err := s.VisitJSON(value); err != nil {
		var se *openapi3.SchemaError
		if !errors.As(err, &se) {
			return v.unexpected(ctx, err)
		}
		msg := fmt.Sprintf("Validation error at %s: %s", errorPath(se), errorReason(se))
		v.logger.WarnContext(ctx, "schema validation failed", "error", msg)
		v.metrics.Validated(metrics.OutcomeInvalid)
		return Result{Valid: false, Error: msg}
	}

	v.metrics.Validated(metrics.OutcomeOK)
	return Result{Valid: true}
}

// IsValidSchema reports whether src resolves to a well-formed schema document.
// Faults are logged at warning level and reported as false.
func (v *Validator) IsValidSchema(ctx context.Context, src Source) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.WarnContext(ctx, "invalid JSON schema", "error", fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	if _, err := v.prepare(ctx, src); err != nil {
		v.logger.WarnContext(ctx, "invalid JSON schema", "error", err)
		return false
	}
	return true
}

// prepare resolves, compiles and meta-validates src.
func (v *Validator) prepare(ctx context.Context, src Source) (*openapi3.Schema, error) {
	doc, err := Resolve(src)
	if err != nil {
		return nil, err
	}
	s, err := compile(doc)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, openapi3.AllowExtraSiblingFields(draft07Keywords...)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return s, nil
}

func (v *Validator) unexpected(ctx context.Context, err error) Result {
	msg := UnexpectedPrefix + err.Error()
	v.logger.ErrorContext(ctx, "unexpected validation error", "error", err)
	v.metrics.Validated(metrics.OutcomeMalformed)
	return Result{Valid: false, Error: msg}
}

// normalizeData converts data to plain JSON values, keeping numbers as json.Number.
// A nil record is treated as an empty object.
func normalizeData(data map[string]any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func errorPath(se *openapi3.SchemaError) string {
	path := se.JSONPointer()
	// kin-openapi marks a missing property with its own name; report it at the parent.
	if se.SchemaField == "required" && len(path) > 0 {
		path = path[:len(path)-1]
	}
	return strings.Join(path, ".")
}

func errorReason(se *openapi3.SchemaError) string {
	switch {
	case se.Reason != "":
		return se.Reason
	case se.Origin != nil:
		return se.Origin.Error()
	default:
		return fmt.Sprintf("doesn't match schema %q", se.SchemaField)
	}
}

// Validate checks data against src using a validator that logs to slog.Default().
func Validate(data map[string]any, src Source) Result {
	return NewValidator(WithLogger(slog.Default())).Validate(context.Background(), data, src)
}

// IsValidSchema reports whether src is a well-formed schema, logging faults to slog.Default().
func IsValidSchema(src Source) bool {
	return NewValidator(WithLogger(slog.Default())).IsValidSchema(context.Background(), src)
}
