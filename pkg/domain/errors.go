package domain

import (
	"errors"
	"fmt"
)

// ErrMissingInputSchema is returned when a data-collection tool is compiled from an edge without an input schema.
var ErrMissingInputSchema = errors.New("missing input schema")

// ErrMissingCallback is returned when the compiler is constructed without a required callback.
var ErrMissingCallback = errors.New("missing callback")

// ErrNodeNotFound is returned when a node ID is not present in the flow.
var ErrNodeNotFound = errors.New("node not found")

// ErrEdgeNotFound is returned when an edge ID is not present in the flow.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrFlowNotFound is returned by loaders when the flow definition does not exist.
var ErrFlowNotFound = errors.New("flow not found")

// ErrToolNotCallable is returned when a tool without a handler is invoked.
var ErrToolNotCallable = errors.New("tool has no handler")

// ConfigurationError reports a structural problem in a flow or compiler setup.
// It is raised at compile time and must not be swallowed.
type ConfigurationError struct {
	Subject string // Edge ID or component name
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Subject, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
