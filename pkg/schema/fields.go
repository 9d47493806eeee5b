package schema

import "sort"

// Fields is a map of field names to their expected types.
// Example: {"name": String(), "age": Int(), "tags": Slice(String())}
type Fields map[string]Type

// CheckFields checks if data conforms to fields.
// Names listed in required must be present and non-nil. Other declared fields may be
// absent or nil. Keys not declared in fields are rejected.
// Returns an AggregateError with all failures found, ordered by field name.
func CheckFields(fields Fields, data map[string]any, required []string) error {
	var errs []error

	mandatory := make(map[string]bool, len(required))
	for _, name := range required {
		mandatory[name] = true
	}

	for _, fieldName := range sortedKeys(fields) {
		value, exists := data[fieldName]
		if !exists || value == nil {
			if mandatory[fieldName] {
				errs = append(errs, &ValidationError{
					Key:    fieldName,
					Reason: "required",
					Value:  nil,
				})
			}
			continue
		}

		// Validate the value against the type
		if err := fields[fieldName].Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	for _, key := range sortedKeys(data) {
		if _, declared := fields[key]; !declared {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: "not defined in schema",
				Value:  nil,
			})
		}
	}

	// If there are errors, aggregate them
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
