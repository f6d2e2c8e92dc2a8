// Package notification keeps the local notification set in sync with the
// server and applies read/delete actions optimistically.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirychukyurii/webitel-job-sync/internal/fetcher"
	"github.com/kirychukyurii/webitel-job-sync/internal/metrics"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
	"github.com/kirychukyurii/webitel-job-sync/internal/notice"
	"github.com/kirychukyurii/webitel-job-sync/internal/optimistic"
	"github.com/kirychukyurii/webitel-job-sync/internal/repository"
)

// allTarget is the pending-action target of MarkAllRead
const allTarget = "*"

// removal is the rollback snapshot of Remove
type removal struct {
	index        int
	notification model.Notification
}

// Store holds the notification set in server order. The unread count is
// always derived from the set, never stored.
//
// The mutex is never held across a backend call.
type Store struct {
	mu       sync.Mutex
	items    []model.Notification
	known    map[string]struct{}
	primed   bool
	issued   uint64
	applied  uint64
	repo     repository.NotificationRepository
	tracker  *optimistic.Tracker
	notifier notice.Notifier
	logger   *slog.Logger
}

// NewStore creates an empty store
func NewStore(repo repository.NotificationRepository, tracker *optimistic.Tracker, notifier notice.Notifier, logger *slog.Logger) *Store {
	return &Store{
		known:    make(map[string]struct{}),
		repo:     repo,
		tracker:  tracker,
		notifier: notifier,
		logger:   logger,
	}
}

// BeginRefresh issues the sequence number for a fetch of the notification list
func (s *Store) BeginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	return s.issued
}

// Refresh replaces the whole set with fetched. It returns false and changes
// nothing when a newer fetch has already been applied. Actions still in
// flight stay visible on top of the fetched set.
//
// fresh lists notifications the server reports unread whose id was not in the
// previous applied set; the first applied refresh only learns the ids and
// reports none.
func (s *Store) Refresh(seq uint64, fetched []model.Notification) (fresh []model.Notification, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		return nil, false
	}
	s.applied = seq

	seen := make(map[string]struct{}, len(fetched))
	items := make([]model.Notification, 0, len(fetched))
	for _, n := range fetched {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		items = append(items, n)

		if _, ok := s.known[n.ID]; !ok && s.primed && !n.Read {
			fresh = append(fresh, n)
		}
	}
	// ids that left the server set are forgotten
	s.known = seen
	items = s.overlayPending(items)

	s.primed = true
	s.items = items
	s.publish()

	return fresh, true
}

// overlayPending re-applies in-flight actions to a fetched set; callers hold mu
func (s *Store) overlayPending(items []model.Notification) []model.Notification {
	for _, a := range s.tracker.Pending(model.ActionMarkRead, model.ActionMarkAllRead, model.ActionDeleteNotification) {
		switch a.Kind {
		case model.ActionMarkAllRead:
			ids, _ := a.RollbackSnapshot.([]string)
			for _, id := range ids {
				if i := indexOf(items, id); i >= 0 {
					items[i].Read = true
				}
			}
		case model.ActionMarkRead:
			if i := indexOf(items, a.TargetID); i >= 0 {
				items[i].Read = true
			}
		case model.ActionDeleteNotification:
			if i := indexOf(items, a.TargetID); i >= 0 {
				items = append(items[:i], items[i+1:]...)
			}
		}
	}
	return items
}

// MarkRead marks one notification read locally, then on the server. A
// notification that is already read is left alone.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexOf(s.items, id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: notification %s", optimistic.ErrNotFound, id)
	}
	action, err := s.tracker.Begin(id, model.ActionMarkRead, s.items[i].Read)
	if err != nil {
		s.mu.Unlock()
		s.busy(model.ActionMarkRead)
		return fmt.Errorf("failed to mark notification %s as read: %w", id, err)
	}
	if s.items[i].Read {
		s.tracker.Resolve(action)
		s.mu.Unlock()
		return nil
	}
	s.items[i].Read = true
	s.publish()
	s.mu.Unlock()

	err = s.repo.MarkNotificationRead(ctx, id)

	s.mu.Lock()
	if err != nil {
		if i := indexOf(s.items, id); i >= 0 && !s.tracker.IsPending(allTarget, model.ActionMarkAllRead) {
			s.items[i].Read = action.RollbackSnapshot.(bool)
		}
		s.publish()
	}
	s.tracker.Resolve(action)
	s.mu.Unlock()

	return s.settle(action, err)
}

// MarkAllRead marks every unread notification read with a single request
func (s *Store) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	action, err := s.tracker.Begin(allTarget, model.ActionMarkAllRead, nil)
	if err != nil {
		s.mu.Unlock()
		s.busy(model.ActionMarkAllRead)
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	var flipped []string
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			flipped = append(flipped, s.items[i].ID)
		}
	}
	if len(flipped) == 0 {
		s.tracker.Resolve(action)
		s.mu.Unlock()
		return nil
	}
	action.RollbackSnapshot = flipped
	s.publish()
	s.mu.Unlock()

	err = s.repo.MarkAllNotificationsRead(ctx)

	s.mu.Lock()
	if err != nil {
		for _, id := range flipped {
			// a single mark-read still in flight keeps its own state
			if s.tracker.IsPending(id, model.ActionMarkRead) {
				continue
			}
			if i := indexOf(s.items, id); i >= 0 {
				s.items[i].Read = false
			}
		}
		s.publish()
	}
	s.tracker.Resolve(action)
	s.mu.Unlock()

	return s.settle(action, err)
}

// Remove deletes one notification locally, then on the server. On failure
// the notification is put back where it was.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexOf(s.items, id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: notification %s", optimistic.ErrNotFound, id)
	}
	snapshot := removal{index: i, notification: s.items[i]}
	action, err := s.tracker.Begin(id, model.ActionDeleteNotification, snapshot)
	if err != nil {
		s.mu.Unlock()
		s.busy(model.ActionDeleteNotification)
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.publish()
	s.mu.Unlock()

	err = s.repo.DeleteNotification(ctx, id)

	s.mu.Lock()
	if err != nil && indexOf(s.items, id) < 0 {
		at := min(snapshot.index, len(s.items))
		s.items = append(s.items[:at:at], append([]model.Notification{snapshot.notification}, s.items[at:]...)...)
		s.publish()
	}
	s.tracker.Resolve(action)
	s.mu.Unlock()

	return s.settle(action, err)
}

// Snapshot returns a copy of the set with its unread count
func (s *Store) Snapshot() model.NotificationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.Notification, len(s.items))
	copy(items, s.items)

	return model.NotificationSnapshot{
		Notifications: items,
		UnreadCount:   model.CountUnread(items),
	}
}

// UnreadCount returns the number of unread notifications
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.CountUnread(s.items)
}

// publish exports the unread count; callers hold mu
func (s *Store) publish() {
	metrics.UnreadNotificationsGauge.Set(float64(model.CountUnread(s.items)))
}

func (s *Store) busy(kind model.ActionKind) {
	metrics.OptimisticActionsTotal.WithLabelValues(string(kind), metrics.OutcomeBusy).Inc()
}

// settle records the outcome of a finished action and converts a failure
// into a rollback error
func (s *Store) settle(action *model.PendingAction, err error) error {
	if err == nil {
		metrics.OptimisticActionsTotal.WithLabelValues(string(action.Kind), metrics.OutcomeOK).Inc()
		return nil
	}

	metrics.OptimisticActionsTotal.WithLabelValues(string(action.Kind), metrics.OutcomeRolledBack).Inc()
	s.logger.Warn("notification action rolled back",
		slog.String("kind", string(action.Kind)),
		slog.String("target_id", action.TargetID),
		slog.String("error", err.Error()),
	)

	if !fetcher.Is(err, fetcher.KindCanceled) {
		s.notifier.Notify(notice.ActionFailed(action.Kind, action.TargetID, optimistic.Reason(err)))
	}

	return fmt.Errorf("%w: %w", optimistic.ErrRollbackApplied, err)
}

func indexOf(items []model.Notification, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
