package services

import (
	"errors"
	"fmt"

	"github.com/kamikazebr/ou-toggle/pkg/utils"
)

var (
	// ErrUpstream marks failures of the directory, record store or scheduler.
	ErrUpstream = errors.New("upstream service unavailable")
	// ErrWrongUser is returned when a revert callback names another user.
	ErrWrongUser = errors.New("email does not match the managed user")
)

// RateLimitError is returned once the daily switch limit has been used up.
type RateLimitError struct {
	Limit          int
	HoursRemaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf(
		"You've reached the maximum of %d %s into a less restrictive organizational unit today. Try again in %d %s.",
		e.Limit, utils.Plural(e.Limit, "switch"),
		e.HoursRemaining, utils.Plural(e.HoursRemaining, "hour"),
	)
}

// UpstreamError carries a human-readable message for the caller alongside
// the underlying failure. It matches ErrUpstream with errors.Is.
type UpstreamError struct {
	UserMessage string
	Err         error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func upstream(userMessage string, err error) error {
	return &UpstreamError{UserMessage: userMessage, Err: err}
}
