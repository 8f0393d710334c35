package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

const (
	defaultPollInterval = 60 * time.Second
	defaultJoinTimeout  = 5 * time.Second
)

// Clock abstracts wall-clock reads and timer waits so the check cycle can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Runner is the consumer-side view of the orchestrator.
type Runner interface {
	Execute(ctx context.Context, cfg domain.RunConfig) (*domain.RunArtifacts, error)
}

// Scheduler owns the persisted schedule state and the single background
// goroutine that fires the pipeline once per matching minute. All lifecycle
// mutation goes through Load/Save/Start/Stop/Restart on the owning instance;
// there is no package-level singleton.
type Scheduler struct {
	store    *Store
	runner   Runner
	notifier ports.Notifier
	logger   *slog.Logger

	clock       Clock
	poll        time.Duration
	joinTimeout time.Duration

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}
}

// New builds a stopped scheduler with default state; call Load to hydrate it.
func New(store *Store, runner Runner, notifier ports.Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:       store,
		runner:      runner,
		notifier:    notifier,
		logger:      logger,
		clock:       systemClock{},
		poll:        defaultPollInterval,
		joinTimeout: defaultJoinTimeout,
		state:       DefaultState(),
	}
}

// Load reads the persisted record into memory. Idempotent; a missing file
// keeps the defaults, a malformed one is logged and treated as empty.
func (s *Scheduler) Load() State {
	state, err := s.store.Load()
	if err != nil {
		s.logger.Warn("loading schedule state failed, using defaults", "error", err)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state
}

// Save atomically overwrites the persisted record with the full new state.
// On failure neither disk nor the in-memory cache changes.
func (s *Scheduler) Save(state State) error {
	if err := s.store.Save(state); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.logger.Info("schedule saved",
		"enabled", state.Enabled,
		"time", fmt.Sprintf("%02d:%02d", state.Hour, state.Minute),
		"timezone", state.Timezone)
	return nil
}

// State returns the in-memory cache of the last loaded/saved record.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start spawns the background check cycle. Warns and does nothing if a timer
// is already active.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		s.logger.Warn("scheduler already running")
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop = stop
	s.done = done
	s.mu.Unlock()

	go s.loop(stop, done)
	s.logger.Info("scheduler started", "poll_interval", s.poll)
}

// Stop signals the loop to exit and joins it with a bounded timeout. Safe to
// call when not running. An in-flight run is not interrupted; only future
// firings are prevented.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-time.After(s.joinTimeout):
		s.logger.Warn("scheduler loop did not exit before timeout, likely mid-run")
	}
}

// Restart applies configuration changes without a process restart.
func (s *Scheduler) Restart() {
	s.Stop()
	s.Start()
}

// Running reports whether the background timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// loop is the check cycle: compare wall-clock time in the configured timezone
// against the trigger, then sleep one poll interval. Checking before the
// first sleep means a start inside the matching minute still fires that day.
// After a firing it waits one extra full interval so a matching minute fires
// at most once.
func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		if state := s.State(); state.Enabled {
			if s.due(state) {
				s.fire(state)

				select {
				case <-stop:
					return
				case <-s.clock.After(s.poll):
				}
			}
		}

		select {
		case <-stop:
			return
		case <-s.clock.After(s.poll):
		}
	}
}

// due reports whether the current minute in the schedule timezone matches the
// trigger.
func (s *Scheduler) due(state State) bool {
	loc, err := time.LoadLocation(state.Timezone)
	if err != nil {
		s.logger.Error("invalid schedule timezone", "timezone", state.Timezone, "error", err)
		return false
	}

	now := s.clock.Now().In(loc)
	if now.Hour() != state.Hour || now.Minute() != state.Minute {
		return false
	}

	s.logger.Info("scheduled time reached", "now", now.Format("2006-01-02 15:04:05 MST"))
	return true
}

// fire invokes one run with the embedded configuration. Scheduled runs are
// unattended, so the notification flag is forced on regardless of the stored
// value; the runner then owns error reporting too, so a failed run produces a
// single Telegram message. Errors and panics never end the loop.
func (s *Scheduler) fire(state State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled run panicked", "panic", r)
			s.reportError(fmt.Errorf("panic: %v", r))
		}
	}()

	cfg := state.Config.RunConfig()
	cfg.Notify = true

	if _, err := s.runner.Execute(context.Background(), cfg); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	} else {
		s.logger.Info("scheduled run completed")
	}
}

func (s *Scheduler) reportError(runErr error) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("*Scheduled analysis failed*\n\n```%v```", runErr)
	if err := s.notifier.SendMessage(context.Background(), msg); err != nil {
		s.logger.Warn("error report failed", "error", err)
	}
}
