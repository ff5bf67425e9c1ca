package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reminders/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DueStore is what the worker needs from the reminder store
type DueStore interface {
	FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	Trigger(ctx context.Context, r models.Reminder, cycleAt time.Time) (bool, error)
}

// CycleReport summarizes one scheduler cycle
type CycleReport struct {
	Now       time.Time `json:"now"`
	Due       int       `json:"due"`
	Triggered int       `json:"triggered"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Err       error     `json:"-"`
}

// ReminderWorker periodically promotes due reminders from pending to triggered
type ReminderWorker struct {
	store    DueStore
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	startup sync.WaitGroup
}

func NewReminderWorker(store DueStore, interval time.Duration, log zerolog.Logger) *ReminderWorker {
	return &ReminderWorker{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, for tests
func (w *ReminderWorker) WithClock(now func() time.Time) *ReminderWorker {
	w.now = now
	return w
}

// Start runs a first cycle right away and then one every interval.
// Calling Start twice is a no-op.
func (w *ReminderWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return nil
	}

	// The startup run and the ticks share one wrapped job so they never overlap
	job := cron.NewChain(
		cron.Recover(cronLogger{w.log}),
		cron.SkipIfStillRunning(cronLogger{w.log}),
	).Then(cron.FuncJob(func() { w.RunCycle(context.Background()) }))

	c := cron.New()
	schedule := fmt.Sprintf("@every %s", w.interval)
	if _, err := c.AddJob(schedule, job); err != nil {
		return fmt.Errorf("failed to schedule reminder worker: %w", err)
	}
	c.Start()
	w.cron = c

	w.startup.Add(1)
	go func() {
		defer w.startup.Done()
		job.Run()
	}()

	w.log.Info().Dur("interval", w.interval).Msg("reminder worker started")
	return nil
}

// Stop prevents new cycles and waits for a running one to finish, or for ctx
func (w *ReminderWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return nil
	}

	idle := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		w.startup.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		w.log.Info().Msg("reminder worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunCycle performs one scan and promotes every due reminder.
// It never returns an error: a failed scan or update is logged and counted,
// and the next cycle tries again.
func (w *ReminderWorker) RunCycle(ctx context.Context) CycleReport {
	// One timestamp for the whole batch so rows are judged against the same instant
	report := CycleReport{Now: w.now()}

	due, err := w.store.FindDue(ctx, report.Now)
	if err != nil {
		report.Err = err
		w.log.Error().Err(err).Msg("scan for due reminders failed, retrying next cycle")
		return report
	}
	report.Due = len(due)

	for _, r := range due {
		applied, err := w.store.Trigger(ctx, r, report.Now)
		switch {
		case err != nil:
			report.Failed++
			w.log.Error().Err(err).Uint("reminder_id", r.ID).Msg("failed to trigger reminder")
		case !applied:
			report.Skipped++
			w.log.Debug().Uint("reminder_id", r.ID).Msg("reminder left pending before it could be triggered")
		default:
			report.Triggered++
			w.log.Warn().
				Uint("reminder_id", r.ID).
				Str("title", r.Title).
				Str("sound", r.Sound).
				Time("trigger_time", r.TriggerTime).
				Msg("ALARM")
		}
	}

	ev := w.log.Debug()
	if report.Due > 0 {
		ev = w.log.Info()
	}
	ev.Int("due", report.Due).
		Int("triggered", report.Triggered).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("scheduler cycle finished")
	return report
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
