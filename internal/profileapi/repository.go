package profileapi

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// ErrNotFound is returned when the user has no stored profile.
var ErrNotFound = errors.New("profileapi: profile not found")

// StoredProfile is a persisted profile owned by one user.
type StoredProfile struct {
	ID        string
	UserID    string
	Draft     profile.Draft
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists one profile per user. Replace swaps the whole profile
// in a single transaction so readers never see a half-written profile.
type Repository interface {
	Replace(ctx context.Context, userID string, d profile.Draft) (StoredProfile, error)
	Get(ctx context.Context, userID string) (StoredProfile, error)
}

// MemoryRepository keeps profiles in process memory.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int
	profiles map[string]StoredProfile
	clock    func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: map[string]StoredProfile{},
		clock:    time.Now,
	}
}

func (r *MemoryRepository) Replace(_ context.Context, userID string, d profile.Draft) (StoredProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock().UTC()
	stored, ok := r.profiles[userID]
	if !ok {
		r.nextID++
		stored = StoredProfile{ID: strconv.Itoa(r.nextID), UserID: userID, CreatedAt: now}
	}
	stored.Draft = d.Clone()
	stored.UpdatedAt = now
	r.profiles[userID] = stored
	return stored, nil
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (StoredProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.profiles[userID]
	if !ok {
		return StoredProfile{}, ErrNotFound
	}
	stored.Draft = stored.Draft.Clone()
	return stored, nil
}
