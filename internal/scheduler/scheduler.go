package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ContractTrader/internal/model"
	"ContractTrader/internal/notifier"
	"ContractTrader/internal/recorder"
)

// ErrCycleRunning is returned when a cycle is requested while one is in flight.
var ErrCycleRunning = errors.New("trade cycle already running")

// Runner executes one trade cycle.
type Runner interface {
	RunCycle(ctx context.Context) *model.CycleReport
	Accounts() []string
}

// Notifier delivers operator alerts.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler triggers trade cycles on a cron schedule and on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Trader   Runner
	Notifier Notifier
	Recorder recorder.Recorder
	Ctx      context.Context
	Timeout  time.Duration

	running atomic.Bool
	mu      sync.RWMutex
	last    *model.CycleReport
	cycles  int
}

// NewScheduler creates a new Scheduler. n may be nil to disable alerts.
func NewScheduler(ctx context.Context, tr Runner, n Notifier, rec recorder.Recorder, timeout time.Duration) *Scheduler {
	l := cronLogger{entry: logrus.WithField("component", "cron")}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		Trader:   tr,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		Timeout:  timeout,
	}
}

// Register schedules the trade cycle.
func (s *Scheduler) Register(cycleCron string) error {
	if _, err := s.Cron.AddFunc(cycleCron, s.cycleTask); err != nil {
		return fmt.Errorf("register trade cycle: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logrus.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logrus.Info("scheduler stopped")
}

// RunNow executes one cycle immediately, bounded by the cycle timeout.
func (s *Scheduler) RunNow() (*model.CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleRunning
	}
	defer s.running.Store(false)

	ctx := s.Ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	rep := s.Trader.RunCycle(ctx)

	s.mu.Lock()
	s.last = rep
	s.cycles++
	s.mu.Unlock()

	if err := s.Recorder.RecordCycle(rep); err != nil {
		logrus.WithError(err).WithField("cycle", rep.ID).Error("record cycle failed")
	}
	if rep.Count(model.AccountFailed) > 0 || rep.Count(model.AccountCanceled) > 0 {
		s.trySend(notifier.FormatCycleReport(rep))
	}
	return rep, nil
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (s *Scheduler) LastReport() *model.CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Cycles returns how many cycles completed since start.
func (s *Scheduler) Cycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

func (s *Scheduler) cycleTask() {
	if _, err := s.RunNow(); err != nil {
		logrus.WithError(err).Warn("skipping scheduled cycle")
	}
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/cycle":
		rep, err := s.RunNow()
		if err != nil {
			return "⏳ " + err.Error()
		}
		return notifier.FormatCycleReport(rep)
	case "/status":
		rep := s.LastReport()
		if rep == nil {
			return fmt.Sprintf("No cycle has run yet. Accounts: %s", strings.Join(s.Trader.Accounts(), ", "))
		}
		return notifier.FormatCycleReport(rep)
	default:
		return "Commands:\n• /cycle run a trade cycle now\n• /status show the last cycle"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logrus.WithError(err).Error("send notification failed")
	}
}

// cronLogger routes cron's internal logging through logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
