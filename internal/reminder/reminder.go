// Package reminder shows a periodic hydration reminder that hides itself
// after a few seconds. It never touches the state of its owner.
package reminder

import (
	"sync"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Default timings.
const (
	DefaultInterval        = time.Hour
	DefaultDisplayFor      = 15 * time.Second
	DefaultAfterGeneration = 5 * time.Second
)

// Options configures a Reminder. Zero values fall back to the defaults.
type Options struct {
	Interval        time.Duration
	DisplayFor      time.Duration
	AfterGeneration time.Duration
}

// Reminder is a cancellable hydration reminder. It only shows while armed
// (the owner is authenticated and viewing a plan).
type Reminder struct {
	opts   Options
	cron   *cronv3.Cron
	logger *zap.Logger

	mu        sync.Mutex
	armed     bool
	visible   bool
	shownAt   time.Time
	started   bool
	stopped   bool
	hideTimer *time.Timer
	onceTimer *time.Timer
}

// New creates a stopped Reminder.
func New(opts Options, logger *zap.Logger) *Reminder {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.DisplayFor <= 0 {
		opts.DisplayFor = DefaultDisplayFor
	}
	if opts.AfterGeneration <= 0 {
		opts.AfterGeneration = DefaultAfterGeneration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := cronv3.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Reminder{
		opts: opts,
		cron: cronv3.New(
			cronv3.WithLogger(cronLogger),
			cronv3.WithChain(cronv3.Recover(cronLogger), cronv3.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
	}
}

// Start begins the periodic schedule. It is a no-op after Stop.
func (r *Reminder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	r.cron.Schedule(cronv3.Every(r.opts.Interval), cronv3.FuncJob(r.Fire))
	r.cron.Start()
}

// Stop cancels the schedule and any pending timer and hides the reminder.
// It waits for a running tick to finish. A stopped Reminder cannot restart.
func (r *Reminder) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.stopTimersLocked()
	r.visible = false
	r.armed = false
	r.mu.Unlock()

	if started {
		<-r.cron.Stop().Done()
	}
}

// Arm sets whether the reminder may show. Disarming hides it.
func (r *Reminder) Arm(armed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = armed
	if !armed {
		r.hideLocked()
	}
}

// Fire shows the reminder if it is armed.
func (r *Reminder) Fire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || !r.armed {
		return
	}
	r.visible = true
	r.shownAt = time.Now()
	if r.hideTimer != nil {
		r.hideTimer.Stop()
	}
	r.hideTimer = time.AfterFunc(r.opts.DisplayFor, r.autoDismiss)
	r.logger.Debug("Hydration reminder shown")
}

// ScheduleOnce fires the reminder once after the post-generation delay,
// replacing any earlier one-shot.
func (r *Reminder) ScheduleOnce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if r.onceTimer != nil {
		r.onceTimer.Stop()
	}
	r.onceTimer = time.AfterFunc(r.opts.AfterGeneration, r.Fire)
}

// Dismiss hides the reminder.
func (r *Reminder) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hideLocked()
}

// Visible reports whether the reminder is showing.
func (r *Reminder) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

func (r *Reminder) autoDismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visible && time.Since(r.shownAt) >= r.opts.DisplayFor {
		r.visible = false
	}
}

func (r *Reminder) hideLocked() {
	r.visible = false
	if r.hideTimer != nil {
		r.hideTimer.Stop()
		r.hideTimer = nil
	}
}

func (r *Reminder) stopTimersLocked() {
	if r.hideTimer != nil {
		r.hideTimer.Stop()
		r.hideTimer = nil
	}
	if r.onceTimer != nil {
		r.onceTimer.Stop()
		r.onceTimer = nil
	}
}
