package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kamikazebr/ou-toggle/pkg/models"
	"google.golang.org/api/cloudtasks/v2"
	"google.golang.org/api/option"
)

// CloudTasks schedules the revert as a one-shot Cloud Tasks HTTP task.
// Task names cannot be reused for a while after deletion, so each task is
// named {JobID}-{unix target} and looked up by that prefix.
type CloudTasks struct {
	tasks  *cloudtasks.ProjectsLocationsQueuesTasksService
	queue  string
	target Target
}

func NewCloudTasks(ctx context.Context, projectID, location, queueID string, target Target, opts ...option.ClientOption) (*CloudTasks, error) {
	svc, err := cloudtasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks service: %w", err)
	}

	return &CloudTasks{
		tasks:  svc.Projects.Locations.Queues.Tasks,
		queue:  fmt.Sprintf("projects/%s/locations/%s/queues/%s", projectID, location, queueID),
		target: target,
	}, nil
}

func (s *CloudTasks) prefix(email string) string {
	return s.queue + "/tasks/" + JobID(email) + "-"
}

// list returns the user's tasks ordered by schedule time.
func (s *CloudTasks) list(ctx context.Context, email string) ([]*models.RevertJob, error) {
	prefix := s.prefix(email)

	var jobs []*models.RevertJob
	err := s.tasks.List(s.queue).Context(ctx).Pages(ctx, func(resp *cloudtasks.ListTasksResponse) error {
		for _, task := range resp.Tasks {
			if !strings.HasPrefix(task.Name, prefix) {
				continue
			}
			at, err := time.Parse(time.RFC3339, task.ScheduleTime)
			if err != nil {
				return fmt.Errorf("invalid schedule time on task %s: %w", task.Name, err)
			}
			jobs = append(jobs, &models.RevertJob{Name: task.Name, NextRun: at.UTC()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list revert tasks: %w", err)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].NextRun.Before(jobs[j].NextRun) })
	return jobs, nil
}

func (s *CloudTasks) Get(ctx context.Context, email string) (*models.RevertJob, error) {
	jobs, err := s.list(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

func (s *CloudTasks) Create(ctx context.Context, email string, at time.Time) (*models.RevertJob, error) {
	body, err := encodedPayload(email)
	if err != nil {
		return nil, fmt.Errorf("failed to encode revert payload: %w", err)
	}

	req := &cloudtasks.HttpRequest{
		Url:        s.target.URL,
		HttpMethod: "POST",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
	if s.target.ServiceAccount != "" {
		req.OidcToken = &cloudtasks.OidcToken{
			ServiceAccountEmail: s.target.ServiceAccount,
			Audience:            s.target.URL,
		}
	}

	at = at.UTC()
	name := fmt.Sprintf("%s%d", s.prefix(email), at.Unix())
	task, err := s.tasks.Create(s.queue, &cloudtasks.CreateTaskRequest{
		Task: &cloudtasks.Task{
			Name:         name,
			ScheduleTime: at.Format(time.RFC3339),
			HttpRequest:  req,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create revert task: %w", err)
	}

	return &models.RevertJob{Name: task.Name, NextRun: at}, nil
}

// Delete removes every task of the user, so a stray duplicate cannot
// outlive a revert.
func (s *CloudTasks) Delete(ctx context.Context, email string) error {
	jobs, err := s.list(ctx, email)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if _, err := s.tasks.Delete(job.Name).Context(ctx).Do(); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete revert task %s: %w", job.Name, err)
		}
	}
	return nil
}
