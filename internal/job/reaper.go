package job

import (
	"log/slog"
	"time"
)

const (
	// ReapInterval is how often idle sessions are looked for
	ReapInterval       = time.Minute
	DefaultIdleTimeout = 30 * time.Minute
)

// Reaper is what SessionReaper sweeps; study.Controller implements it.
type Reaper interface {
	ReapIdle(now time.Time, maxIdle time.Duration) int
}

// SessionReaper abandons review sessions that have been idle for too long so
// they stop holding memory and get a recorded outcome.
type SessionReaper struct {
	sessions    Reaper
	idleTimeout time.Duration
	interval    time.Duration
	logger      *slog.Logger
	now         func() time.Time
	stopCh      chan struct{}
	runningLock chan struct{} // Used to ensure only one sweep runs at a time
}

func NewSessionReaper(sessions Reaper, idleTimeout time.Duration, logger *slog.Logger) *SessionReaper {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionReaper{
		sessions:    sessions,
		idleTimeout: idleTimeout,
		interval:    ReapInterval,
		logger:      logger,
		now:         time.Now,
		stopCh:      make(chan struct{}),
		runningLock: make(chan struct{}, 1), // Buffer of 1 allows us to use it as a semaphore
	}
}

// Start runs sweeps until Stop is called. It blocks.
func (r *SessionReaper) Start() {
	r.logger.Info("starting session reaper", "idle_timeout", r.idleTimeout.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go r.Sweep()
		case <-r.stopCh:
			r.logger.Info("session reaper stopped")
			return
		}
	}
}

func (r *SessionReaper) Stop() {
	close(r.stopCh)
}

// Sweep reaps idle sessions once. It returns false when another sweep was
// already running.
func (r *SessionReaper) Sweep() bool {
	select {
	case r.runningLock <- struct{}{}:
		defer func() { <-r.runningLock }()
	default:
		r.logger.Debug("session sweep already running, skipping")
		return false
	}

	if n := r.sessions.ReapIdle(r.now().UTC(), r.idleTimeout); n > 0 {
		r.logger.Info("reaped idle sessions", "count", n)
	}
	return true
}
