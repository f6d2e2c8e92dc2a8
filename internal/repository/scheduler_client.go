package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/kirychukyurii/webitel-job-sync/internal/fetcher"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

// Metric labels for backend resources
const (
	resourceJobSchedules  = "job_schedules"
	resourceJobExecutions = "job_executions"
	resourceJobCancel     = "job_cancel"
	resourceNotifications = "notifications"
	resourceMarkRead      = "notification_read"
	resourceMarkAllRead   = "notification_read_all"
	resourceDelete        = "notification_delete"
)

// JobRepository defines the job scheduler API operations on schedules and executions
type JobRepository interface {
	ListJobSchedules(ctx context.Context) ([]model.JobSchedule, error)
	ListJobExecutions(ctx context.Context, scheduleID string) ([]model.JobExecution, error)
	CancelJobSchedule(ctx context.Context, scheduleID string) error
}

// NotificationRepository defines the job scheduler API operations on notifications
type NotificationRepository interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}

// SchedulerRepository is the full REST surface consumed by the engine
type SchedulerRepository interface {
	JobRepository
	NotificationRepository
}

// schedulerRepository implements SchedulerRepository over a Fetcher
type schedulerRepository struct {
	fetcher        *fetcher.Fetcher
	markReadMethod string
	logger         *slog.Logger
}

// NewSchedulerRepository creates a repository; markReadMethod is POST (the
// default) or PUT
func NewSchedulerRepository(f *fetcher.Fetcher, markReadMethod string, logger *slog.Logger) SchedulerRepository {
	if markReadMethod == "" {
		markReadMethod = http.MethodPost
	}
	return &schedulerRepository{
		fetcher:        f,
		markReadMethod: markReadMethod,
		logger:         logger,
	}
}

// ListJobSchedules returns all job schedules
func (r *schedulerRepository) ListJobSchedules(ctx context.Context) ([]model.JobSchedule, error) {
	schedules, err := fetcher.Get[[]model.JobSchedule](ctx, r.fetcher, resourceJobSchedules, "/job-schedules")
	if err != nil {
		return nil, fmt.Errorf("failed to list job schedules: %w", err)
	}

	r.logger.Debug("listed job schedules",
		slog.Int("count", len(schedules)),
	)

	return schedules, nil
}

// ListJobExecutions returns the executions of one schedule in server order
func (r *schedulerRepository) ListJobExecutions(ctx context.Context, scheduleID string) ([]model.JobExecution, error) {
	path := "/job-executions/job-schedule/" + url.PathEscape(scheduleID)
	executions, err := fetcher.Get[[]model.JobExecution](ctx, r.fetcher, resourceJobExecutions, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions of job %s: %w", scheduleID, err)
	}

	return executions, nil
}

// CancelJobSchedule requests cancellation of a job schedule
func (r *schedulerRepository) CancelJobSchedule(ctx context.Context, scheduleID string) error {
	err := r.fetcher.Do(ctx, fetcher.Request{
		Resource: resourceJobCancel,
		Method:   http.MethodPost,
		Path:     "/job-schedules/" + url.PathEscape(scheduleID) + "/cancel",
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", scheduleID, err)
	}

	r.logger.Info("cancelled job",
		slog.String("job_id", scheduleID),
	)

	return nil
}

// ListNotifications returns all notifications
func (r *schedulerRepository) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	notifications, err := fetcher.Get[[]model.Notification](ctx, r.fetcher, resourceNotifications, "/notifications")
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead marks one notification read
func (r *schedulerRepository) MarkNotificationRead(ctx context.Context, id string) error {
	err := r.fetcher.Do(ctx, fetcher.Request{
		Resource: resourceMarkRead,
		Method:   r.markReadMethod,
		Path:     "/notifications/" + url.PathEscape(id) + "/read",
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", id, err)
	}

	return nil
}

// MarkAllNotificationsRead marks every notification read
func (r *schedulerRepository) MarkAllNotificationsRead(ctx context.Context) error {
	err := r.fetcher.Do(ctx, fetcher.Request{
		Resource: resourceMarkAllRead,
		Method:   http.MethodPut,
		Path:     "/notifications/read-all",
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return nil
}

// DeleteNotification deletes one notification
func (r *schedulerRepository) DeleteNotification(ctx context.Context, id string) error {
	err := r.fetcher.Do(ctx, fetcher.Request{
		Resource: resourceDelete,
		Method:   http.MethodDelete,
		Path:     "/notifications/" + url.PathEscape(id),
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}

	return nil
}
