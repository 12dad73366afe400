package profile

import "github.com/google/uuid"

// IDSource mints record ids.
type IDSource func() string

// NewID returns a time-ordered UUIDv7, falling back to a random UUID if the
// v7 generator fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
