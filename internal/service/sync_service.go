package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirychukyurii/webitel-job-sync/internal/config"
	"github.com/kirychukyurii/webitel-job-sync/internal/jobboard"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
	"github.com/kirychukyurii/webitel-job-sync/internal/notice"
	"github.com/kirychukyurii/webitel-job-sync/internal/notification"
	"github.com/kirychukyurii/webitel-job-sync/internal/optimistic"
	"github.com/kirychukyurii/webitel-job-sync/internal/poller"
	"github.com/kirychukyurii/webitel-job-sync/internal/repository"
)

// JobFilter narrows ListJobs; zero values match everything
type JobFilter struct {
	Status model.JobStatus
	Query  string // case-insensitive substring of the job id or jar name
}

// SyncService defines the operations the view layer performs on the synchronized state
type SyncService interface {
	Start(ctx context.Context)
	Stop()
	ListJobs(ctx context.Context, filter JobFilter) []model.Job
	GetJob(ctx context.Context, id string) (model.Job, error)
	CancelJob(ctx context.Context, id string) (*model.JobActionResult, error)
	ListNotifications(ctx context.Context) model.NotificationSnapshot
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	ListNotices() []model.Notice
	DismissNotice(id string) bool
	DismissAllNotices()
	Status() model.SyncStatus
	Refresh(ctx context.Context) (model.SyncStatus, error)
}

// syncService implements SyncService by wiring the board, the notification
// store, the optimistic manager and the poller together
type syncService struct {
	board   *jobboard.Board
	store   *notification.Store
	manager *optimistic.Manager
	poller  *poller.Poller
	feed    *notice.Feed
	logger  *slog.Logger
}

// NewSyncService creates the service and all components it owns
func NewSyncService(repo repository.SchedulerRepository, cfg *config.Config, logger *slog.Logger) SyncService {
	tracker := optimistic.NewTracker(cfg.Optimistic.PendingTTL)
	feed := notice.NewFeed(cfg.Notices.TTL, logger.With(slog.String("component", "notices")))
	board := jobboard.New()
	store := notification.NewStore(repo, tracker, feed, logger.With(slog.String("component", "notifications")))
	manager := optimistic.NewManager(board, repo, tracker, feed, logger.With(slog.String("component", "optimistic")))
	p := poller.New(cfg.Poller, repo, board, store, tracker, feed, logger.With(slog.String("component", "poller")))

	return &syncService{
		board:   board,
		store:   store,
		manager: manager,
		poller:  p,
		feed:    feed,
		logger:  logger,
	}
}

// Start begins background polling
func (s *syncService) Start(ctx context.Context) {
	s.poller.Start(ctx)
}

// Stop halts polling and cancels in-flight requests
func (s *syncService) Stop() {
	s.poller.Stop()
}

// ListJobs returns the merged jobs matching filter, in schedule order
func (s *syncService) ListJobs(ctx context.Context, filter JobFilter) []model.Job {
	jobs := s.board.Snapshot()
	if filter.Status == "" && filter.Query == "" {
		return jobs
	}

	query := strings.ToLower(filter.Query)
	filtered := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if filter.Status != "" && !strings.EqualFold(string(job.Status), string(filter.Status)) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(job.ID), query) &&
			!strings.Contains(strings.ToLower(job.JarName), query) {
			continue
		}
		filtered = append(filtered, job)
	}

	return filtered
}

// GetJob returns one merged job
func (s *syncService) GetJob(ctx context.Context, id string) (model.Job, error) {
	job, ok := s.board.Get(id)
	if !ok {
		return model.Job{}, fmt.Errorf("%w: job %s", optimistic.ErrNotFound, id)
	}
	return job, nil
}

// CancelJob cancels a job optimistically
func (s *syncService) CancelJob(ctx context.Context, id string) (*model.JobActionResult, error) {
	s.logger.Info("cancelling job",
		slog.String("job_id", id),
	)

	result := &model.JobActionResult{
		JobID:   id,
		Action:  "cancel",
		Success: false,
		Errors:  []string{},
	}

	job, err := s.manager.Apply(ctx, id, model.JobStatusCancelled)
	if err != nil {
		if errors.Is(err, optimistic.ErrRollbackApplied) {
			result.Errors = append(result.Errors, optimistic.Reason(err))
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		if current, ok := s.board.Get(id); ok {
			result.Status = current.Status
		}
		s.logger.Error("failed to cancel job",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
		return result, err
	}

	result.Success = true
	result.Status = job.Status

	return result, nil
}

// ListNotifications returns the notification snapshot
func (s *syncService) ListNotifications(ctx context.Context) model.NotificationSnapshot {
	return s.store.Snapshot()
}

// MarkNotificationRead marks one notification read optimistically
func (s *syncService) MarkNotificationRead(ctx context.Context, id string) error {
	return s.store.MarkRead(ctx, id)
}

// MarkAllNotificationsRead marks every notification read optimistically
func (s *syncService) MarkAllNotificationsRead(ctx context.Context) error {
	return s.store.MarkAllRead(ctx)
}

// DeleteNotification removes one notification optimistically
func (s *syncService) DeleteNotification(ctx context.Context, id string) error {
	return s.store.Remove(ctx, id)
}

// ListNotices returns live notices
func (s *syncService) ListNotices() []model.Notice {
	return s.feed.List()
}

// DismissNotice removes a notice
func (s *syncService) DismissNotice(id string) bool {
	return s.feed.Dismiss(id)
}

// DismissAllNotices clears the notice feed
func (s *syncService) DismissAllNotices() {
	s.feed.DismissAll()
}

// Status returns the poller status
func (s *syncService) Status() model.SyncStatus {
	return s.poller.Status()
}

// Refresh runs or joins a poll cycle and returns the resulting status. A
// failed cycle is reported through the status, not as an error.
func (s *syncService) Refresh(ctx context.Context) (model.SyncStatus, error) {
	err := s.poller.Refresh(ctx)
	if errors.Is(err, poller.ErrStopped) || ctx.Err() != nil {
		return s.poller.Status(), err
	}
	return s.poller.Status(), nil
}
