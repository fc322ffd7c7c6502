package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/kamikazebr/ou-toggle/pkg/models"
)

var (
	// ErrRecordNotFound is returned by Get when no record exists for a user.
	ErrRecordNotFound = errors.New("access record not found")
	// ErrVersionConflict is returned by Put when the stored version no longer
	// matches the record's version.
	ErrVersionConflict = errors.New("access record version conflict")
)

// maxUpdateAttempts bounds the read-modify-write loop in Update.
const maxUpdateAttempts = 5

// AccessStore persists one AccessRecord per user email.
//
// Put is a conditional write: it succeeds only if the stored version equals
// rec.Version (zero meaning "must not exist yet"), and on success sets
// rec.Version to the new version.
type AccessStore interface {
	Get(ctx context.Context, email string) (*models.AccessRecord, error)
	Put(ctx context.Context, email string, rec *models.AccessRecord) error
	Close() error
}

// Mutator changes a record in place. Returning an error aborts the update
// without writing.
type Mutator func(rec *models.AccessRecord) error

// Update loads the record for email (or newRecord() if none exists), applies
// mutate and writes the result back conditionally. On a version conflict the
// record is re-read and mutate re-applied. Nothing is written when mutate
// leaves an existing record unchanged.
func Update(ctx context.Context, store AccessStore, email string, newRecord func() *models.AccessRecord, mutate Mutator) (*models.AccessRecord, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		current, err := store.Get(ctx, email)
		if errors.Is(err, ErrRecordNotFound) {
			current = newRecord()
			current.Version = 0
		} else if err != nil {
			return nil, fmt.Errorf("failed to load access record: %w", err)
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}

		if current.Version != 0 && next.SameState(current) {
			return next, nil
		}

		err = store.Put(ctx, email, next)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save access record: %w", err)
		}
		return next, nil
	}

	return nil, fmt.Errorf("failed to save access record after %d attempts: %w", maxUpdateAttempts, ErrVersionConflict)
}
