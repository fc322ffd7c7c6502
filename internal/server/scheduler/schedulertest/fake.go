// Package schedulertest provides an in-memory scheduler.Scheduler.
package schedulertest

import (
	"context"
	"sync"
	"time"

	"github.com/kamikazebr/ou-toggle/internal/server/scheduler"
	"github.com/kamikazebr/ou-toggle/pkg/models"
)

// Fake records revert jobs in memory. Set the *Err fields to make the
// corresponding call fail.
type Fake struct {
	mu   sync.Mutex
	jobs map[string]*models.RevertJob

	GetErr    error
	CreateErr error
	DeleteErr error

	Creates int
	Deletes int
}

// Compile-time interface check.
var _ scheduler.Scheduler = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{jobs: make(map[string]*models.RevertJob)}
}

func (f *Fake) Get(ctx context.Context, email string) (*models.RevertJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}
	job, ok := f.jobs[email]
	if !ok {
		return nil, nil
	}
	c := *job
	return &c, nil
}

func (f *Fake) Create(ctx context.Context, email string, at time.Time) (*models.RevertJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.Creates++
	job := &models.RevertJob{Name: scheduler.JobID(email), NextRun: at.UTC()}
	f.jobs[email] = job
	c := *job
	return &c, nil
}

func (f *Fake) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.jobs[email]; ok {
		f.Deletes++
	}
	delete(f.jobs, email)
	return nil
}

// Put installs a job directly, bypassing Create accounting.
func (f *Fake) Put(email string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[email] = &models.RevertJob{Name: scheduler.JobID(email), NextRun: at.UTC()}
}

// Len returns the number of scheduled jobs.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}
