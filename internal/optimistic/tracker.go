// Package optimistic applies user actions locally before the server confirms
// them and reverts them when the server request fails.
package optimistic

import (
	"sort"
	"sync"
	"time"

	"github.com/kirychukyurii/webitel-job-sync/internal/cache"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

// Tracker is the registry of pending actions; at most one action per
// (target, kind) is outstanding. Entries expire after ttl so a request
// that never resolves cannot keep its target busy forever.
type Tracker struct {
	mu      sync.Mutex
	pending cache.Cache[*model.PendingAction]
	now     func() time.Time
}

// NewTracker creates a tracker whose entries expire after ttl
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		pending: cache.New[*model.PendingAction](ttl),
		now:     time.Now,
	}
}

// Begin records a pending action, or returns ErrBusy when one with the same
// target and kind is outstanding
func (t *Tracker) Begin(targetID string, kind model.ActionKind, snapshot any) (*model.PendingAction, error) {
	action := &model.PendingAction{
		TargetID:         targetID,
		Kind:             kind,
		AppliedAt:        t.now(),
		RollbackSnapshot: snapshot,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pending.Add(action.Key(), action) {
		return nil, ErrBusy
	}
	return action, nil
}

// Resolve removes action from the registry. An entry that already expired and
// was replaced by a newer action for the same key is left alone.
func (t *Tracker) Resolve(action *model.PendingAction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending.DeleteIf(action.Key(), func(a *model.PendingAction) bool { return a == action })
}

// IsPending reports whether an action of kind is outstanding for targetID
func (t *Tracker) IsPending(targetID string, kind model.ActionKind) bool {
	_, ok := t.pending.Get(model.PendingKey(targetID, kind))
	return ok
}

// Pending returns outstanding actions of the given kinds, oldest first; no
// kinds means all
func (t *Tracker) Pending(kinds ...model.ActionKind) []model.PendingAction {
	live := t.pending.Values()
	actions := make([]model.PendingAction, 0, len(live))
	for _, a := range live {
		if len(kinds) > 0 && !hasKind(kinds, a.Kind) {
			continue
		}
		actions = append(actions, *a)
	}

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].AppliedAt.Equal(actions[j].AppliedAt) {
			return actions[i].Key() < actions[j].Key()
		}
		return actions[i].AppliedAt.Before(actions[j].AppliedAt)
	})

	return actions
}

// Count returns the number of outstanding actions
func (t *Tracker) Count() int {
	return len(t.pending.Values())
}

func hasKind(kinds []model.ActionKind, k model.ActionKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}
