package optimistic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirychukyurii/webitel-job-sync/internal/fetcher"
	"github.com/kirychukyurii/webitel-job-sync/internal/jobboard"
	"github.com/kirychukyurii/webitel-job-sync/internal/metrics"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
	"github.com/kirychukyurii/webitel-job-sync/internal/notice"
	"github.com/kirychukyurii/webitel-job-sync/internal/repository"
)

// Manager applies job status changes optimistically
type Manager struct {
	board    *jobboard.Board
	repo     repository.JobRepository
	tracker  *Tracker
	notifier notice.Notifier
	logger   *slog.Logger
}

// NewManager creates a manager that overlays changes on board and confirms
// them through repo
func NewManager(board *jobboard.Board, repo repository.JobRepository, tracker *Tracker, notifier notice.Notifier, logger *slog.Logger) *Manager {
	return &Manager{
		board:    board,
		repo:     repo,
		tracker:  tracker,
		notifier: notifier,
		logger:   logger,
	}
}

// Apply shows jobID in status to right away, then asks the backend to perform
// the change. On failure the previous status is restored, a notice is raised
// and the returned error wraps ErrRollbackApplied. On success the overlay stays
// until a poll cycle that started afterwards brings the server's view.
func (m *Manager) Apply(ctx context.Context, jobID string, to model.JobStatus) (model.Job, error) {
	if to != model.JobStatusCancelled {
		return model.Job{}, fmt.Errorf("%w: %s", ErrUnsupportedTransition, to)
	}

	current, ok := m.board.Get(jobID)
	if !ok {
		return model.Job{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}

	action, err := m.tracker.Begin(jobID, model.ActionCancelJob, current)
	if err != nil {
		metrics.OptimisticActionsTotal.WithLabelValues(string(model.ActionCancelJob), metrics.OutcomeBusy).Inc()
		return model.Job{}, fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}
	defer m.tracker.Resolve(action)

	if current.Status.IsTerminal() {
		return model.Job{}, fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, jobID, current.Status)
	}

	if _, err := m.board.Overlay(jobID, to); err != nil {
		return model.Job{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}

	if err := m.repo.CancelJobSchedule(ctx, jobID); err != nil {
		m.board.Rollback(jobID)
		m.rolledBack(action, err)
		return model.Job{}, fmt.Errorf("%w: %w", ErrRollbackApplied, err)
	}

	m.board.Settle(jobID)
	metrics.OptimisticActionsTotal.WithLabelValues(string(model.ActionCancelJob), metrics.OutcomeOK).Inc()

	m.logger.Info("job cancelled",
		slog.String("job_id", jobID),
	)

	job, _ := m.board.Get(jobID)
	return job, nil
}

func (m *Manager) rolledBack(action *model.PendingAction, err error) {
	metrics.OptimisticActionsTotal.WithLabelValues(string(action.Kind), metrics.OutcomeRolledBack).Inc()

	m.logger.Warn("optimistic action rolled back",
		slog.String("kind", string(action.Kind)),
		slog.String("target_id", action.TargetID),
		slog.String("error", err.Error()),
	)

	// a caller that went away does not need to be told
	if fetcher.Is(err, fetcher.KindCanceled) {
		return
	}
	m.notifier.Notify(notice.ActionFailed(action.Kind, action.TargetID, Reason(err)))
}
