// Package poller keeps the local job and notification state in sync with the
// backend by polling it on a fixed interval, backing off while it fails.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kirychukyurii/webitel-job-sync/internal/concurrent"
	"github.com/kirychukyurii/webitel-job-sync/internal/config"
	"github.com/kirychukyurii/webitel-job-sync/internal/jobboard"
	"github.com/kirychukyurii/webitel-job-sync/internal/merge"
	"github.com/kirychukyurii/webitel-job-sync/internal/metrics"
	"github.com/kirychukyurii/webitel-job-sync/internal/model"
	"github.com/kirychukyurii/webitel-job-sync/internal/notice"
	"github.com/kirychukyurii/webitel-job-sync/internal/notification"
	"github.com/kirychukyurii/webitel-job-sync/internal/optimistic"
	"github.com/kirychukyurii/webitel-job-sync/internal/repository"
)

// State is the lifecycle state of the poller
type State string

const (
	StateIdle          State = "idle"
	StatePolling       State = "polling"
	StateScheduledWait State = "scheduled_wait"
	StateBackoff       State = "backoff"
	StateStopped       State = "stopped"
)

// ErrStopped is returned by Refresh once the poller has been stopped
var ErrStopped = errors.New("poller stopped")

const cycleKey = "cycle"

// Poller runs poll cycles: list schedules, fetch their executions, merge,
// fetch notifications, and publish the results to the board and the store.
// Cycles never overlap.
type Poller struct {
	cfg      config.PollerConfig
	repo     repository.SchedulerRepository
	board    *jobboard.Board
	store    *notification.Store
	tracker  *optimistic.Tracker
	notifier notice.Notifier
	logger   *slog.Logger

	flight singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu          sync.RWMutex
	state       State
	started     bool
	failures    int
	lastErr     error
	lastSuccess time.Time
	lastAttempt time.Time
	nextAt      time.Time
	cycles      uint64
}

// New creates a poller; call Start to begin polling
func New(
	cfg config.PollerConfig,
	repo repository.SchedulerRepository,
	board *jobboard.Board,
	store *notification.Store,
	tracker *optimistic.Tracker,
	notifier notice.Notifier,
	logger *slog.Logger,
) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		cfg:      cfg,
		repo:     repo,
		board:    board,
		store:    store,
		tracker:  tracker,
		notifier: notifier,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateIdle,
	}
}

// Start runs the first cycle right away and then keeps polling in a
// background goroutine until Stop is called or ctx is done
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.state == StateStopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.wg.Add(1)
	p.mu.Unlock()

	context.AfterFunc(ctx, p.cancel)

	p.logger.Info("starting poller",
		slog.Duration("interval", p.cfg.Interval),
		slog.Duration("max_backoff", p.cfg.MaxBackoff),
		slog.Int("max_concurrent", p.cfg.MaxConcurrent),
	)

	go p.run()
}

// Stop cancels in-flight requests, stops the timer and waits for running
// cycles to return. No state is changed by the poller after Stop returns.
func (p *Poller) Stop() {
	p.once.Do(func() {
		p.logger.Info("stopping poller")

		p.mu.Lock()
		p.state = StateStopped
		p.mu.Unlock()

		p.cancel()
		p.wg.Wait()

		p.logger.Info("poller stopped")
	})
}

// Refresh runs a cycle now, or waits for the one already running, and
// returns its error. Returning early because ctx is done does not cancel the
// cycle.
func (p *Poller) Refresh(ctx context.Context) error {
	if p.State() == StateStopped {
		return ErrStopped
	}

	select {
	case res := <-p.trigger():
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the poller state and the size of the current snapshots
func (p *Poller) Status() model.SyncStatus {
	p.mu.RLock()
	status := model.SyncStatus{
		State:               string(p.state),
		Interval:            p.cfg.Interval.Milliseconds(),
		LastSuccess:         p.lastSuccess,
		LastAttempt:         p.lastAttempt,
		ConsecutiveFailures: p.failures,
		Cycles:              p.cycles,
	}
	if p.lastErr != nil {
		status.LastError = p.lastErr.Error()
	}
	if !p.nextAt.IsZero() && (p.state == StateScheduledWait || p.state == StateBackoff) {
		status.NextPollIn = max(time.Until(p.nextAt), 0).Milliseconds()
	}
	p.mu.RUnlock()

	status.JobsTotal = p.board.Len()
	status.JobsUpdatedAt = p.board.UpdatedAt()
	status.UnreadCount = p.store.UnreadCount()
	status.PendingActions = p.tracker.Count()

	return status
}

// run is the main polling loop
func (p *Poller) run() {
	defer p.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
			select {
			case <-p.trigger():
			case <-p.ctx.Done():
				return
			}

			delay := p.schedule()
			timer.Reset(delay)
		}
	}
}

// trigger starts a cycle unless one is running; every caller gets the result
// of the same cycle
func (p *Poller) trigger() <-chan singleflight.Result {
	return p.flight.DoChan(cycleKey, func() (any, error) {
		if !p.enter() {
			return nil, ErrStopped
		}
		defer p.wg.Done()

		return nil, p.cycle()
	})
}

// enter registers a running cycle with Stop unless the poller is stopped
func (p *Poller) enter() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return false
	}
	p.wg.Add(1)
	return true
}

// schedule moves to the waiting state and returns the delay to the next cycle
func (p *Poller) schedule() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	delay := Backoff(p.cfg.Interval, p.cfg.MaxBackoff, p.failures)
	p.nextAt = time.Now().Add(delay)
	p.settleState()

	return delay
}

// settleState leaves the polling state once a cycle is over; callers hold mu
func (p *Poller) settleState() {
	switch {
	case p.state == StateStopped:
	case !p.started:
		p.state = StateIdle
	case p.failures > 0:
		p.state = StateBackoff
	default:
		p.state = StateScheduledWait
	}
}

// Backoff returns the delay before the next cycle: interval while healthy,
// doubled for each consecutive failure, never more than maxBackoff
func Backoff(interval, maxBackoff time.Duration, failures int) time.Duration {
	maxBackoff = max(maxBackoff, interval)
	d := interval
	for i := 0; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

// cycle performs one poll cycle
func (p *Poller) cycle() error {
	ctx := p.ctx
	if ctx.Err() != nil {
		return ErrStopped
	}

	start := time.Now()
	p.setState(StatePolling)

	jobSeq := p.board.BeginCycle()
	notificationSeq := p.store.BeginRefresh()

	var (
		jobs          []model.Job
		notifications []model.Notification
		jobsErr       error
		notesErr      error
		g             errgroup.Group
	)
	g.Go(func() error {
		jobs, jobsErr = p.fetchJobs(ctx)
		return nil
	})
	g.Go(func() error {
		notifications, notesErr = p.repo.ListNotifications(ctx)
		return nil
	})
	_ = g.Wait()

	// stopped while fetching: results are discarded
	if ctx.Err() != nil {
		return ErrStopped
	}

	if jobsErr == nil {
		if p.board.Replace(jobSeq, jobs) {
			metrics.JobsGauge.Set(float64(len(jobs)))
		}
	}
	if notesErr == nil {
		fresh, _ := p.store.Refresh(notificationSeq, notifications)
		p.announce(fresh)
	}

	err := errors.Join(jobsErr, notesErr)
	p.record(err, time.Since(start))

	return err
}

// fetchJobs lists schedules and merges each with its executions. A schedule
// whose executions cannot be fetched is shown without execution details.
func (p *Poller) fetchJobs(ctx context.Context) ([]model.Job, error) {
	schedules, err := p.repo.ListJobSchedules(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(schedules))
	for i, s := range schedules {
		ids[i] = s.ID
	}

	outcomes := concurrent.FanOut(ctx, ids, p.cfg.MaxConcurrent, p.repo.ListJobExecutions)

	executions := make(map[string][]model.JobExecution, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			if ctx.Err() == nil {
				metrics.DegradedJobsTotal.Inc()
				p.logger.Warn("failed to fetch job executions, showing schedule only",
					slog.String("job_id", o.Key),
					slog.String("error", o.Err.Error()),
				)
			}
			continue
		}
		executions[o.Key] = o.Value
	}

	return merge.MergeAll(schedules, executions), nil
}

// record updates the failure bookkeeping after a cycle
func (p *Poller) record(err error, took time.Duration) {
	now := time.Now()
	metrics.PollCycleDuration.Observe(took.Seconds())

	p.mu.Lock()
	p.cycles++
	p.lastAttempt = now
	previous := p.failures
	if err == nil {
		p.failures = 0
		p.lastErr = nil
		p.lastSuccess = now
	} else {
		p.failures++
		p.lastErr = err
	}
	p.settleState()
	p.mu.Unlock()

	if err == nil {
		metrics.PollCyclesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		if previous > 0 {
			p.logger.Info("backend reachable again",
				slog.Int("previous_failures", previous),
			)
		} else {
			p.logger.Debug("poll cycle completed",
				slog.Duration("took", took),
			)
		}
		return
	}

	metrics.PollCyclesTotal.WithLabelValues(metrics.OutcomeError).Inc()
	p.logger.Warn("poll cycle failed",
		slog.Int("consecutive_failures", previous+1),
		slog.Duration("next_in", Backoff(p.cfg.Interval, p.cfg.MaxBackoff, previous+1)),
		slog.String("error", err.Error()),
	)

	if previous == 0 {
		p.notifier.Notify(model.Notice{
			Level:   model.NoticeWarning,
			Title:   "Unable to refresh jobs",
			Message: fmt.Sprintf("%s. Showing the last known data.", optimistic.Reason(err)),
		})
	}
}

// announce raises a notice for each newly arrived unread notification
func (p *Poller) announce(fresh []model.Notification) {
	for _, n := range fresh {
		p.notifier.Notify(model.Notice{
			Level:    noticeLevels[n.Type],
			Title:    n.Title,
			Message:  n.Message,
			TargetID: n.ID,
		})
	}
}

var noticeLevels = map[model.NotificationType]model.NoticeLevel{
	model.NotificationSuccess: model.NoticeSuccess,
	model.NotificationError:   model.NoticeError,
	model.NotificationWarning: model.NoticeWarning,
	model.NotificationInfo:    model.NoticeInfo,
}

// State returns the lifecycle state
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateStopped {
		p.state = s
	}
}
