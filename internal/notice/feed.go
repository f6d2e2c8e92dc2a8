// Package notice keeps transient, toast-style messages for the view layer.
package notice

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kirychukyurii/webitel-job-sync/internal/cache"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

// Notifier accepts notices; components depend on this instead of the Feed
type Notifier interface {
	Notify(n model.Notice) model.Notice
}

// Feed stores notices until they expire or are dismissed
type Feed struct {
	items  cache.Cache[model.Notice]
	now    func() time.Time
	logger *slog.Logger
}

// NewFeed creates a feed whose notices live for ttl
func NewFeed(ttl time.Duration, logger *slog.Logger) *Feed {
	return &Feed{
		items:  cache.New[model.Notice](ttl),
		now:    time.Now,
		logger: logger,
	}
}

// Notify stores n, filling in ID and CreatedAt, and returns the stored notice
func (f *Feed) Notify(n model.Notice) model.Notice {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = f.now()
	}
	if n.Level == "" {
		n.Level = model.NoticeInfo
	}

	f.items.Set(n.ID, n)

	f.logger.Debug("notice raised",
		slog.String("id", n.ID),
		slog.String("level", string(n.Level)),
		slog.String("title", n.Title),
	)

	return n
}

// List returns live notices, oldest first
func (f *Feed) List() []model.Notice {
	notices := f.items.Values()

	sort.Slice(notices, func(i, j int) bool {
		if notices[i].CreatedAt.Equal(notices[j].CreatedAt) {
			return notices[i].ID < notices[j].ID
		}
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})

	return notices
}

// Dismiss removes one notice; it reports whether the notice was live
func (f *Feed) Dismiss(id string) bool {
	if _, ok := f.items.Get(id); !ok {
		return false
	}
	f.items.Delete(id)
	return true
}

// DismissAll removes every notice
func (f *Feed) DismissAll() {
	f.items.Clear()
}

// ActionFailed builds the notice for an optimistic action that was rolled back
func ActionFailed(kind model.ActionKind, targetID, reason string) model.Notice {
	return model.Notice{
		Level:    model.NoticeError,
		Title:    actionTitles[kind],
		Message:  reason + ". Please try again.",
		Action:   kind,
		TargetID: targetID,
	}
}

var actionTitles = map[model.ActionKind]string{
	model.ActionCancelJob:          "Failed to cancel job",
	model.ActionMarkRead:           "Failed to mark notification as read",
	model.ActionMarkAllRead:        "Failed to mark notifications as read",
	model.ActionDeleteNotification: "Failed to delete notification",
}
