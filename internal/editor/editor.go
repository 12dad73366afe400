// Package editor implements the section editor contract: an editor receives a
// value snapshot of its section and an update callback, and never mutates the
// draft directly.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

var (
	// ErrUnknownRecord is returned when an id does not address a record in the list.
	ErrUnknownRecord = errors.New("editor: record not found")
	// ErrNotSaved marks an update that was applied but could not be persisted.
	// An UpdateFunc returning an error wrapping it keeps the change in the list.
	ErrNotSaved = errors.New("draft not saved")
)

// UpdateFunc receives the complete replacement list for the section.
type UpdateFunc[T any] func([]T) error

// Checker validates a single record.
type Checker[T any] func(record T, existing []T) steps.FieldErrors

// List edits one list section. It keeps the last field errors so a host can
// render them next to the offending inputs.
type List[T profile.Record[T]] struct {
	section   profile.Section
	items     []T
	onUpdate  UpdateFunc[T]
	check     Checker[T]
	normalize func(T) T
	ids       profile.IDSource
	errs      steps.FieldErrors
}

// Config assembles a List.
type Config[T profile.Record[T]] struct {
	Section   profile.Section
	Snapshot  []T
	OnUpdate  UpdateFunc[T]
	Check     Checker[T]
	Normalize func(T) T
	IDs       profile.IDSource
}

// New returns an editor over a private copy of the snapshot.
func New[T profile.Record[T]](cfg Config[T]) *List[T] {
	ids := cfg.IDs
	if ids == nil {
		ids = profile.NewID
	}
	return &List[T]{
		section:   cfg.Section,
		items:     slices.Clone(cfg.Snapshot),
		onUpdate:  cfg.OnUpdate,
		check:     cfg.Check,
		normalize: cfg.Normalize,
		ids:       ids,
	}
}

// Items returns a copy of the current records.
func (l *List[T]) Items() []T {
	return slices.Clone(l.items)
}

// Len returns the number of records.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Errors returns the field errors of the last rejected add or update.
func (l *List[T]) Errors() steps.FieldErrors {
	return l.errs
}

// Touch clears the error of a field the user has just edited.
func (l *List[T]) Touch(field string) {
	if l.errs != nil {
		l.errs.Clear(field)
	}
}

// Add validates the record, stamps a fresh id and appends it. A rejected
// record leaves the list unchanged and returns steps.FieldErrors.
func (l *List[T]) Add(record T) (T, error) {
	record = l.prepare(record)
	if errs := l.validate(record, l.items); errs != nil {
		var zero T
		return zero, errs
	}
	record = record.WithID(l.ids())
	next := append(slices.Clone(l.items), record)
	if err := l.commit(next); err != nil {
		return record, err
	}
	return record, nil
}

// Update replaces the record with the same id.
func (l *List[T]) Update(record T) error {
	idx := l.index(record.RecordID())
	if idx < 0 {
		return fmt.Errorf("%w: %s %q", ErrUnknownRecord, l.section, record.RecordID())
	}
	record = l.prepare(record)
	others := slices.Delete(slices.Clone(l.items), idx, idx+1)
	if errs := l.validate(record, others); errs != nil {
		return errs
	}
	next := slices.Clone(l.items)
	next[idx] = record
	return l.commit(next)
}

// Remove deletes the record with the given id.
func (l *List[T]) Remove(id string) error {
	idx := l.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s %q", ErrUnknownRecord, l.section, id)
	}
	next := slices.Delete(slices.Clone(l.items), idx, idx+1)
	return l.commit(next)
}

// Get returns the record with the given id.
func (l *List[T]) Get(id string) (T, bool) {
	idx := l.index(id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return l.items[idx], true
}

func (l *List[T]) prepare(record T) T {
	if l.normalize != nil {
		record = l.normalize(record)
	}
	return record
}

func (l *List[T]) validate(record T, existing []T) steps.FieldErrors {
	l.errs = nil
	if l.check == nil {
		return nil
	}
	errs := l.check(record, existing)
	if len(errs) == 0 {
		return nil
	}
	l.errs = errs
	return errs
}

func (l *List[T]) commit(next []T) error {
	if l.onUpdate != nil {
		if err := l.onUpdate(slices.Clone(next)); err != nil {
			if errors.Is(err, ErrNotSaved) {
				l.items = next
			}
			return err
		}
	}
	l.items = next
	return nil
}

func (l *List[T]) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(l.items, func(item T) bool {
		return item.RecordID() == id
	})
}
