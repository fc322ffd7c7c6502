package scheduler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kamikazebr/ou-toggle/pkg/models"
	"github.com/kamikazebr/ou-toggle/pkg/utils"
	"github.com/robfig/cron/v3"
	"google.golang.org/api/googleapi"
)

// Scheduler manages the single revert job of a user.
type Scheduler interface {
	// Get returns the user's revert job, or nil if none exists.
	Get(ctx context.Context, email string) (*models.RevertJob, error)
	// Create schedules a revert callback for email at the given minute.
	Create(ctx context.Context, email string, at time.Time) (*models.RevertJob, error)
	// Delete removes the user's revert job. A missing job is not an error.
	Delete(ctx context.Context, email string) error
}

// Target is where and as whom the revert callback is delivered.
type Target struct {
	URL string
	// ServiceAccount, when set, makes the scheduler attach a Google-signed
	// OIDC token for URL.
	ServiceAccount string
}

// JobID is the deterministic per-user job identifier.
func JobID(email string) string {
	return utils.SanitizeEmail(email) + "_revert_ou"
}

// CronExpression matches exactly the hour and minute of at, every day.
func CronExpression(at time.Time) string {
	return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour())
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first activation of a 5-field cron expression after
// now, evaluated in timeZone (UTC when empty).
func NextRun(expr, timeZone string, now time.Time) (time.Time, error) {
	loc := time.UTC
	if timeZone != "" {
		l, err := time.LoadLocation(timeZone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
		}
		loc = l
	}

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched.Next(now.In(loc)).UTC(), nil
}

func encodedPayload(email string) (string, error) {
	body, err := json.Marshal(models.RevertRequest{Email: email})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
