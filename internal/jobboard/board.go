// Package jobboard owns the merged job set shown to the view layer.
//
// Server data arrives as whole-cycle snapshots tagged with the sequence number
// of the cycle that fetched them; a snapshot from an older cycle than the one
// already applied is dropped. Optimistic status changes are kept as overlays
// on top of the server data until a cycle that started after the action was
// settled delivers a fresher server read, at which point the server wins.
package jobboard

import (
	"errors"
	"sync"
	"time"

	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

// ErrNotFound is returned for a job id absent from the current snapshot
var ErrNotFound = errors.New("job not found")

type overlay struct {
	status     model.JobStatus
	settled    bool
	settledSeq uint64
}

// Board holds merged jobs and optimistic overlays
type Board struct {
	mu        sync.RWMutex
	jobs      []model.Job
	index     map[string]int
	overlays  map[string]*overlay
	issued    uint64
	applied   uint64
	updatedAt time.Time
}

// New creates an empty board
func New() *Board {
	return &Board{
		index:    make(map[string]int),
		overlays: make(map[string]*overlay),
	}
}

// BeginCycle issues the sequence number for a new poll cycle
func (b *Board) BeginCycle() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.issued++
	return b.issued
}

// Replace installs the jobs fetched by cycle seq. It returns false and changes
// nothing when a newer cycle has already been applied.
func (b *Board) Replace(seq uint64, jobs []model.Job) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if seq <= b.applied {
		return false
	}
	b.applied = seq
	b.updatedAt = time.Now()

	b.jobs = make([]model.Job, len(jobs))
	b.index = make(map[string]int, len(jobs))
	for i, job := range jobs {
		b.jobs[i] = job.Clone()
		b.index[job.ID] = i
	}

	for id, ov := range b.overlays {
		if ov.settled && seq > ov.settledSeq {
			delete(b.overlays, id)
		}
	}

	return true
}

// Overlay shows status for jobID until the overlay is rolled back or reconciled.
// It returns the job as displayed before the change.
func (b *Board) Overlay(jobID string, status model.JobStatus) (model.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[jobID]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	previous := b.displayed(b.jobs[i])

	b.overlays[jobID] = &overlay{status: status}
	return previous, nil
}

// Settle marks the overlay's request as finished so the next cycle started
// from now on may replace it with server data
func (b *Board) Settle(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ov, ok := b.overlays[jobID]; ok {
		ov.settled = true
		ov.settledSeq = b.issued
	}
}

// Rollback drops the overlay so the job shows server data again
func (b *Board) Rollback(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.overlays, jobID)
}

// Get returns one job as displayed
func (b *Board) Get(jobID string) (model.Job, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i, ok := b.index[jobID]
	if !ok {
		return model.Job{}, false
	}
	return b.displayed(b.jobs[i]), true
}

// Snapshot returns a copy of every job as displayed, in schedule order
func (b *Board) Snapshot() []model.Job {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Job, len(b.jobs))
	for i, job := range b.jobs {
		out[i] = b.displayed(job)
	}
	return out
}

// Len returns the number of jobs
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.jobs)
}

// UpdatedAt returns when server data was last applied
func (b *Board) UpdatedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.updatedAt
}

// displayed applies the overlay, if any; callers hold mu
func (b *Board) displayed(job model.Job) model.Job {
	job = job.Clone()
	if ov, ok := b.overlays[job.ID]; ok {
		job.Status = ov.status
		job.Pending = true
	}
	return job
}
