// Package directorytest provides an in-memory directory.Service.
package directorytest

import (
	"context"
	"sync"

	"github.com/kamikazebr/ou-toggle/internal/server/directory"
)

// Fake maps user emails to org unit paths.
type Fake struct {
	mu  sync.Mutex
	ous map[string]string

	GetErr error
	SetErr error

	Sets int
}

// Compile-time interface check.
var _ directory.Service = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{ous: make(map[string]string)}
}

// SetOU places a user in an OU without counting it as an update.
func (f *Fake) SetOU(email, ou string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ous[email] = ou
}

// OU returns the user's current OU.
func (f *Fake) OU(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ous[email]
}

func (f *Fake) GetUserOU(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return "", f.GetErr
	}
	ou, ok := f.ous[email]
	if !ok {
		return "", directory.ErrUserNotFound
	}
	return ou, nil
}

func (f *Fake) SetUserOU(ctx context.Context, email, orgUnitPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetErr != nil {
		return f.SetErr
	}
	f.Sets++
	f.ous[email] = orgUnitPath
	return nil
}
