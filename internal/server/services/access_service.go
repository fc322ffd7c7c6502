package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kamikazebr/ou-toggle/internal/server/directory"
	"github.com/kamikazebr/ou-toggle/internal/server/scheduler"
	"github.com/kamikazebr/ou-toggle/internal/server/storage"
	"github.com/kamikazebr/ou-toggle/pkg/models"
	"github.com/kamikazebr/ou-toggle/pkg/utils"
	"go.uber.org/zap"
)

// Toggle outcomes, also used as metric labels.
const (
	OutcomePromoted    = "promoted"
	OutcomeReverted    = "reverted"
	OutcomeInformed    = "informed"
	OutcomeRateLimited = "rate_limited"
	OutcomeUnchanged   = "unchanged"
	OutcomeFailed      = "failed"
)

// AccessConfig holds the parts of the server configuration the access
// state machine needs.
type AccessConfig struct {
	UserEmail      string
	UnrestrictedOU string
	RestrictedOU   string
	SwitchLimit    int
	Duration       time.Duration
	// Location defines calendar days for the switch counter.
	Location *time.Location
}

// Notifier is told about completed transitions. Failures are logged and
// never fail the request.
type Notifier interface {
	NotifyPromoted(email string, until time.Time, remainingSwitches int) error
	NotifyReverted(email string) error
}

// ToggleResult is the outcome of a successful toggle call.
type ToggleResult struct {
	Outcome string
	Message string
	Record  *models.AccessRecord
}

// RevertResult is the outcome of a revert callback.
type RevertResult struct {
	Reverted bool
	Success  bool
	Message  string
}

// AccessService moves the managed user between the restricted and the
// unrestricted OU, enforcing the daily switch limit and keeping exactly one
// revert job scheduled while the user is unrestricted.
type AccessService struct {
	cfg      AccessConfig
	store    storage.AccessStore
	dir      directory.Service
	jobs     scheduler.Scheduler
	notifier Notifier
	metrics  *Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewAccessService(cfg AccessConfig, store storage.AccessStore, dir directory.Service, jobs scheduler.Scheduler, log *zap.Logger) *AccessService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessService{
		cfg:   cfg,
		store: store,
		dir:   dir,
		jobs:  jobs,
		log:   log.With(zap.String("user", cfg.UserEmail)),
		now:   time.Now,
	}
}

// SetNotifier attaches an optional notifier.
func (s *AccessService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetMetrics attaches optional outcome counters.
func (s *AccessService) SetMetrics(m *Metrics) {
	s.metrics = m
}

// SetClock replaces the time source.
func (s *AccessService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AccessService) today(now time.Time) string {
	return now.In(s.cfg.Location).Format(models.DateLayout)
}

func (s *AccessService) newRecord(date string) func() *models.AccessRecord {
	return func() *models.AccessRecord {
		return models.NewAccessRecord(date)
	}
}

// Toggle grants unrestricted access, reports the time left, or reverts an
// expired grant, depending on the user's actual OU and recorded expiry.
// The caller must already be authenticated.
func (s *AccessService) Toggle(ctx context.Context) (*ToggleResult, error) {
	res, err := s.toggle(ctx)
	switch {
	case err == nil:
		s.metrics.observeToggle(res.Outcome)
	case errors.As(err, new(*RateLimitError)):
		s.metrics.observeToggle(OutcomeRateLimited)
	default:
		s.metrics.observeToggle(OutcomeFailed)
	}
	return res, err
}

func (s *AccessService) toggle(ctx context.Context) (*ToggleResult, error) {
	now := s.now()
	today := s.today(now)

	rec, err := storage.Update(ctx, s.store, s.cfg.UserEmail, s.newRecord(today), func(r *models.AccessRecord) error {
		if r.ResetForDate(today) {
			s.log.Info("resetting switch count for the new day", zap.String("date", today))
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to load access record", zap.Error(err))
		return nil, upstream("Google API error", err)
	}

	if rec.UnrestrictedSwitches >= s.cfg.SwitchLimit {
		s.log.Info("switch limit reached", zap.Int("switches", rec.UnrestrictedSwitches))
		return nil, &RateLimitError{
			Limit:          s.cfg.SwitchLimit,
			HoursRemaining: utils.HoursUntilMidnight(now.In(s.cfg.Location)),
		}
	}

	currentOU, err := s.dir.GetUserOU(ctx, s.cfg.UserEmail)
	if err != nil {
		s.log.Error("failed to get user OU", zap.Error(err))
		return nil, upstream("Google API error", err)
	}

	if currentOU != s.cfg.UnrestrictedOU {
		s.log.Info("user in restricted OU, moving to unrestricted", zap.String("ou", currentOU))
		return s.promote(ctx, now, currentOU)
	}

	exp := rec.ExpirationTimeUTC
	if exp == nil || now.After(*exp) {
		if exp == nil {
			s.log.Info("user in unrestricted OU without expiration")
		} else {
			s.log.Info("user in unrestricted OU with expired time", zap.Time("expiration", *exp))
		}
		reverted, err := s.revert(ctx, currentOU)
		if err != nil {
			return nil, err
		}
		return &ToggleResult{
			Outcome: OutcomeReverted,
			Message: "Your access has expired and you've been moved to restricted mode.",
			Record:  reverted,
		}, nil
	}

	s.log.Info("user in unrestricted OU with time remaining", zap.Time("expiration", *exp))
	return s.informed(rec, now), nil
}

func (s *AccessService) informed(rec *models.AccessRecord, now time.Time) *ToggleResult {
	remaining := s.cfg.SwitchLimit - rec.UnrestrictedSwitches
	return &ToggleResult{
		Outcome: OutcomeInformed,
		Message: fmt.Sprintf("You have %s left in unrestricted mode. %s",
			utils.FormatRemaining(rec.ExpirationTimeUTC.Sub(now)), switchesLeftMessage(remaining)),
		Record: rec,
	}
}

// hasLiveGrant reports whether rec records an unrestricted window that has
// not expired at now.
func hasLiveGrant(rec *models.AccessRecord, now time.Time) bool {
	return rec.OUState == models.OUStateUnrestricted &&
		rec.ExpirationTimeUTC != nil && now.Before(*rec.ExpirationTimeUTC)
}

func switchesLeftMessage(remaining int) string {
	return fmt.Sprintf("You can switch to unrestricted mode %d more %s today.",
		remaining, utils.Plural(remaining, "time"))
}

// moveUser places the user in target unless currentOU already is target.
func (s *AccessService) moveUser(ctx context.Context, currentOU, target string) error {
	if currentOU == target {
		s.log.Info("user already in OU, no changes needed", zap.String("ou", target))
		return nil
	}
	if err := s.dir.SetUserOU(ctx, s.cfg.UserEmail, target); err != nil {
		return err
	}
	s.log.Info("moved user", zap.String("from", currentOU), zap.String("to", target))
	return nil
}

func (s *AccessService) promote(ctx context.Context, now time.Time, currentOU string) (*ToggleResult, error) {
	if err := s.moveUser(ctx, currentOU, s.cfg.UnrestrictedOU); err != nil {
		s.log.Error("failed to move user to unrestricted OU", zap.Error(err))
		return nil, upstream("We encountered an issue moving you to unrestricted mode. Please try again later.", err)
	}

	today := s.today(now)
	_, err := storage.Update(ctx, s.store, s.cfg.UserEmail, s.newRecord(today), func(r *models.AccessRecord) error {
		r.ResetForDate(today)
		if r.UnrestrictedSwitches >= s.cfg.SwitchLimit {
			return &RateLimitError{
				Limit:          s.cfg.SwitchLimit,
				HoursRemaining: utils.HoursUntilMidnight(now.In(s.cfg.Location)),
			}
		}
		r.UnrestrictedSwitches++
		return nil
	})
	if err != nil {
		var rateErr *RateLimitError
		if errors.As(err, &rateErr) {
			// A concurrent toggle counted the last switch, and it only does so
			// after moving the user itself. The grant and its revert job are
			// that request's, so the directory is left alone.
			s.log.Warn("switch limit reached concurrently, keeping the concurrent grant")
			rec, getErr := s.store.Get(ctx, s.cfg.UserEmail)
			if getErr == nil && hasLiveGrant(rec, now) {
				return s.informed(rec, now), nil
			}
			return nil, rateErr
		}
		s.log.Error("failed to record switch", zap.Error(err))
		return nil, upstream("Google API error", err)
	}

	job, err := s.scheduleRevert(ctx, now)
	if err != nil {
		s.log.Error("user promoted but no revert job could be scheduled", zap.Error(err))
		return nil, upstream("We encountered an issue scheduling your unrestricted time. Please try again later.", err)
	}

	expiration := job.NextRun.UTC()
	rec, err := storage.Update(ctx, s.store, s.cfg.UserEmail, s.newRecord(today), func(r *models.AccessRecord) error {
		r.OUState = models.OUStateUnrestricted
		r.ExpirationTimeUTC = &expiration
		return nil
	})
	if err != nil {
		s.log.Error("failed to record expiration", zap.Error(err))
		return nil, upstream("Google API error", err)
	}

	remaining := s.cfg.SwitchLimit - rec.UnrestrictedSwitches
	if s.notifier != nil {
		if err := s.notifier.NotifyPromoted(s.cfg.UserEmail, expiration, remaining); err != nil {
			s.log.Warn("failed to send promotion notification", zap.Error(err))
		}
	}

	minutes := int(s.cfg.Duration / time.Minute)
	return &ToggleResult{
		Outcome: OutcomePromoted,
		Message: fmt.Sprintf("You've been moved to unrestricted mode and will be reverted after %d %s. %s",
			minutes, utils.Plural(minutes, "minute"), switchesLeftMessage(remaining)),
		Record: rec,
	}, nil
}

// scheduleRevert makes sure exactly one revert job exists, firing at the
// duration from now rounded up to the next minute. An existing job for that
// same minute is kept; any other is replaced.
func (s *AccessService) scheduleRevert(ctx context.Context, now time.Time) (*models.RevertJob, error) {
	target := utils.RoundUpToMinute(now.Add(s.cfg.Duration)).UTC()
	latest := now.Add(s.cfg.Duration + time.Minute)

	existing, err := s.jobs.Get(ctx, s.cfg.UserEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.NextRun.Before(target) && !existing.NextRun.After(latest) {
			s.log.Info("revert job already scheduled",
				zap.String("job", existing.Name), zap.Time("next_run", existing.NextRun))
			return existing, nil
		}
		s.log.Info("replacing revert job",
			zap.String("job", existing.Name), zap.Time("next_run", existing.NextRun))
		if err := s.jobs.Delete(ctx, s.cfg.UserEmail); err != nil {
			return nil, err
		}
	}

	job, err := s.jobs.Create(ctx, s.cfg.UserEmail, target)
	if err != nil {
		return nil, err
	}
	s.log.Info("scheduled revert job", zap.String("job", job.Name), zap.Time("next_run", job.NextRun))
	return job, nil
}

// revert moves the user to the restricted OU, clears the expiration and
// removes the revert job.
func (s *AccessService) revert(ctx context.Context, currentOU string) (*models.AccessRecord, error) {
	if err := s.moveUser(ctx, currentOU, s.cfg.RestrictedOU); err != nil {
		s.log.Error("failed to move user to restricted OU", zap.Error(err))
		return nil, upstream("Failed to set OU", err)
	}

	today := s.today(s.now())
	rec, err := storage.Update(ctx, s.store, s.cfg.UserEmail, s.newRecord(today), func(r *models.AccessRecord) error {
		r.OUState = models.OUStateRestricted
		r.ExpirationTimeUTC = nil
		return nil
	})
	if err != nil {
		s.log.Error("failed to record revert", zap.Error(err))
		return nil, upstream("Failed to update access record", err)
	}

	if err := s.jobs.Delete(ctx, s.cfg.UserEmail); err != nil {
		s.log.Error("failed to delete revert job", zap.Error(err))
		return nil, upstream("Failed to delete revert job", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyReverted(s.cfg.UserEmail); err != nil {
			s.log.Warn("failed to send revert notification", zap.Error(err))
		}
	}
	return rec, nil
}

// RevertExpired is the scheduled callback. It reverts the user when the
// recorded grant has expired or when the directory shows unrestricted
// access the record does not know about. An empty email means the managed
// user.
func (s *AccessService) RevertExpired(ctx context.Context, email string) (*RevertResult, error) {
	res, err := s.revertExpired(ctx, email)
	switch {
	case err != nil:
		s.metrics.observeRevert(OutcomeFailed)
	case res.Reverted:
		s.metrics.observeRevert(OutcomeReverted)
	default:
		s.metrics.observeRevert(OutcomeUnchanged)
	}
	return res, err
}

func (s *AccessService) revertExpired(ctx context.Context, email string) (*RevertResult, error) {
	if email != "" && !strings.EqualFold(email, s.cfg.UserEmail) {
		return nil, ErrWrongUser
	}

	now := s.now()
	today := s.today(now)

	rec, err := s.store.Get(ctx, s.cfg.UserEmail)
	if errors.Is(err, storage.ErrRecordNotFound) {
		rec = models.NewAccessRecord(today)
	} else if err != nil {
		s.log.Error("failed to load access record", zap.Error(err))
		return nil, upstream("Failed to load access record", err)
	}

	currentOU, err := s.dir.GetUserOU(ctx, s.cfg.UserEmail)
	if err != nil {
		s.log.Error("failed to get user OU", zap.Error(err))
		return nil, upstream("Google API error", err)
	}

	expired := rec.OUState == models.OUStateUnrestricted &&
		(rec.ExpirationTimeUTC == nil || !now.Before(*rec.ExpirationTimeUTC))
	drifted := currentOU == s.cfg.UnrestrictedOU && rec.OUState != models.OUStateUnrestricted

	result := &RevertResult{}
	if expired || drifted {
		s.log.Info("condition met to revert OU",
			zap.Bool("expired", expired), zap.Bool("drifted", drifted), zap.String("actual_ou", currentOU))
		if _, err := s.revert(ctx, currentOU); err != nil {
			s.log.Error("error processing revert",
				zap.String("expected_state", string(rec.OUState)), zap.String("actual_ou", currentOU), zap.Error(err))
			return nil, err
		}
		result.Reverted = true
		result.Message = "Successfully reverted OU for user."
	} else {
		result.Message = "User is either not in the unrestricted OU or unrestricted time hasn't elapsed."
		s.log.Warn(result.Message, zap.String("actual_ou", currentOU))
		if rec.OUState == models.OUStateRestricted {
			// Nothing left to revert; a daily cron job would fire again tomorrow.
			if err := s.jobs.Delete(ctx, s.cfg.UserEmail); err != nil {
				s.log.Error("failed to delete stale revert job", zap.Error(err))
				return nil, upstream("Failed to delete revert job", err)
			}
		}
	}

	rec, err = storage.Update(ctx, s.store, s.cfg.UserEmail, s.newRecord(today), func(r *models.AccessRecord) error {
		if r.ResetForDate(today) {
			s.log.Info("resetting request count for the new day", zap.String("date", today))
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to reset switch count", zap.Error(err))
		return nil, upstream("Failed to update access record", err)
	}

	result.Success = rec.OUState == models.OUStateRestricted
	return result, nil
}

// Status reports the record, the directory OU and the scheduled job.
func (s *AccessService) Status(ctx context.Context) (*models.StatusResponse, error) {
	rec, err := s.store.Get(ctx, s.cfg.UserEmail)
	if errors.Is(err, storage.ErrRecordNotFound) {
		rec = nil
	} else if err != nil {
		return nil, upstream("Failed to load access record", err)
	}

	ou, err := s.dir.GetUserOU(ctx, s.cfg.UserEmail)
	if err != nil {
		return nil, upstream("Google API error", err)
	}

	job, err := s.jobs.Get(ctx, s.cfg.UserEmail)
	if err != nil {
		return nil, upstream("Failed to get revert job", err)
	}

	return &models.StatusResponse{
		Email:     s.cfg.UserEmail,
		Record:    rec,
		ActualOU:  ou,
		RevertJob: job,
	}, nil
}

// ForceRevert reverts the user immediately regardless of expiry.
func (s *AccessService) ForceRevert(ctx context.Context) (*models.AccessRecord, error) {
	ou, err := s.dir.GetUserOU(ctx, s.cfg.UserEmail)
	if err != nil {
		return nil, upstream("Google API error", err)
	}
	return s.revert(ctx, ou)
}

// ResetSwitches zeroes today's switch counter.
func (s *AccessService) ResetSwitches(ctx context.Context) (*models.AccessRecord, error) {
	today := s.today(s.now())
	rec, err := storage.Update(ctx, s.store, s.cfg.UserEmail, s.newRecord(today), func(r *models.AccessRecord) error {
		r.UnrestrictedSwitches = 0
		r.LastRequestDate = today
		return nil
	})
	if err != nil {
		return nil, upstream("Failed to update access record", err)
	}
	return rec, nil
}
