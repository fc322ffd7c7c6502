package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/kamikazebr/ou-toggle/pkg/models"
	"google.golang.org/api/cloudscheduler/v1"
	"google.golang.org/api/option"
)

const jobTimeZone = "Etc/UTC"

// CloudScheduler keeps the revert as a daily Cloud Scheduler cron job that
// fires at one specific UTC minute. The job is deleted once it has done its
// work, so in practice it runs once.
type CloudScheduler struct {
	jobs   *cloudscheduler.ProjectsLocationsJobsService
	parent string
	target Target
	now    func() time.Time
}

func NewCloudScheduler(ctx context.Context, projectID, location string, target Target, opts ...option.ClientOption) (*CloudScheduler, error) {
	svc, err := cloudscheduler.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud scheduler service: %w", err)
	}

	return &CloudScheduler{
		jobs:   svc.Projects.Locations.Jobs,
		parent: fmt.Sprintf("projects/%s/locations/%s", projectID, location),
		target: target,
		now:    time.Now,
	}, nil
}

func (s *CloudScheduler) jobName(email string) string {
	return s.parent + "/jobs/" + JobID(email)
}

func (s *CloudScheduler) Get(ctx context.Context, email string) (*models.RevertJob, error) {
	job, err := s.jobs.Get(s.jobName(email)).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get revert job: %w", err)
	}

	next, err := NextRun(job.Schedule, job.TimeZone, s.now())
	if err != nil {
		return nil, err
	}
	return &models.RevertJob{Name: job.Name, NextRun: next}, nil
}

func (s *CloudScheduler) Create(ctx context.Context, email string, at time.Time) (*models.RevertJob, error) {
	body, err := encodedPayload(email)
	if err != nil {
		return nil, fmt.Errorf("failed to encode revert payload: %w", err)
	}

	target := &cloudscheduler.HttpTarget{
		Uri:        s.target.URL,
		HttpMethod: "POST",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
	if s.target.ServiceAccount != "" {
		target.OidcToken = &cloudscheduler.OidcToken{
			ServiceAccountEmail: s.target.ServiceAccount,
			Audience:            s.target.URL,
		}
	}

	at = at.UTC()
	job, err := s.jobs.Create(s.parent, &cloudscheduler.Job{
		Name:        s.jobName(email),
		Description: "Revert " + email + " to the restricted OU",
		Schedule:    CronExpression(at),
		TimeZone:    jobTimeZone,
		HttpTarget:  target,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create revert job: %w", err)
	}

	return &models.RevertJob{Name: job.Name, NextRun: at}, nil
}

func (s *CloudScheduler) Delete(ctx context.Context, email string) error {
	_, err := s.jobs.Delete(s.jobName(email)).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete revert job: %w", err)
	}
	return nil
}
