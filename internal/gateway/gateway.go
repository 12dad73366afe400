// Package gateway submits a completed profile draft to the profile service and
// classifies its failures.
package gateway

import (
	"context"
	"os"
	"strings"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// Gateway creates (or replaces) the caller's profile from a full draft.
type Gateway interface {
	CreateProfile(ctx context.Context, draft profile.Draft) (ProfileRef, error)
}

// ReadinessScores are returned by the service after scoring the profile.
type ReadinessScores struct {
	Startup   float64 `json:"startup_score"`
	Corporate float64 `json:"corporate_score"`
	Leading   float64 `json:"leading_score"`
}

// ProfileRef identifies the stored profile.
type ProfileRef struct {
	ID        string          `json:"profile_id"`
	Message   string          `json:"message,omitempty"`
	Readiness ReadinessScores `json:"readiness_scores"`
}

// Func adapts a function to Gateway.
type Func func(ctx context.Context, draft profile.Draft) (ProfileRef, error)

func (f Func) CreateProfile(ctx context.Context, draft profile.Draft) (ProfileRef, error) {
	return f(ctx, draft)
}

// TokenSource supplies the bearer token for each request. An empty token sends
// no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// EnvToken reads the token from an environment variable on every request, so
// a refreshed session token is picked up without restarting.
type EnvToken string

func (e EnvToken) Token(context.Context) (string, error) {
	if e == "" {
		return "", nil
	}
	return strings.TrimSpace(os.Getenv(string(e))), nil
}
