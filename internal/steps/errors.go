package steps

import (
	"maps"
	"slices"
	"strings"
)

// FieldErrors maps a record field (by its JSON name) to a user-facing message.
// A non-empty FieldErrors is a recoverable input error.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "steps: no field errors"
	}
	keys := slices.Sorted(maps.Keys(fe))
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+fe[key])
	}
	return "steps: " + strings.Join(parts, "; ")
}

// Has reports whether field carries an error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Clear drops the error for a field once the user edits it.
func (fe FieldErrors) Clear(field string) {
	delete(fe, field)
}

// Err returns fe as an error, or nil when it is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
