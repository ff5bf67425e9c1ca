package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reminders/internal/lifecycle"
	"reminders/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceAPI       = "api"
	SourceScheduler = "scheduler"
)

// maxCASAttempts bounds the compare-and-set loop in Complete. Statuses only move
// forward, so a reminder can lose at most two races before it is terminal.
const maxCASAttempts = 3

var errConflict = errors.New("reminder changed concurrently")

// ReminderStore is the reminder table access layer. Every status change is a
// conditional single-row UPDATE keyed on the expected current status, so the
// scheduler and API handlers never need an in-process lock to stay consistent.
type ReminderStore struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

// NewReminderStore wraps db. Each operation runs with its own session bounded by timeout.
func NewReminderStore(db *gorm.DB, timeout time.Duration) *ReminderStore {
	return &ReminderStore{
		db:      db,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// session hands out a context-scoped handle; the cancel func must always be deferred
func (s *ReminderStore) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// Ping checks that the store answers within the operation timeout
func (s *ReminderStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return lifecycle.Unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return lifecycle.Unavailable("ping", err)
	}
	return nil
}

// Create inserts a pending reminder and records its creation event
func (s *ReminderStore) Create(ctx context.Context, r *models.Reminder) error {
	if r.Status != models.StatusPending {
		return fmt.Errorf("%w: new reminders must be pending, got %q", lifecycle.ErrIllegalTransition, r.Status)
	}
	db, cancel := s.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		return tx.Create(&models.ReminderEvent{
			ReminderID: r.ID,
			ToStatus:   models.StatusPending,
			Source:     SourceAPI,
			At:         s.now(),
		}).Error
	})
	if err != nil {
		return lifecycle.Unavailable("create reminder", err)
	}
	return nil
}

// List returns reminders newest first, optionally filtered by status
func (s *ReminderStore) List(ctx context.Context, status models.ReminderStatus) ([]models.Reminder, error) {
	db, cancel := s.session(ctx)
	defer cancel()

	query := db.Model(&models.Reminder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	reminders := []models.Reminder{}
	if err := query.Order("id DESC").Find(&reminders).Error; err != nil {
		return nil, lifecycle.Unavailable("list reminders", err)
	}
	return reminders, nil
}

// Get loads a single reminder
func (s *ReminderStore) Get(ctx context.Context, id uint) (*models.Reminder, error) {
	db, cancel := s.session(ctx)
	defer cancel()

	var r models.Reminder
	if err := db.First(&r, id).Error; err != nil {
		return nil, translate("get reminder", err)
	}
	return &r, nil
}

// FindDue returns every pending reminder whose trigger time is at or before now
func (s *ReminderStore) FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	db, cancel := s.session(ctx)
	defer cancel()

	var due []models.Reminder
	err := db.Where("status IN ? AND trigger_time <= ?", lifecycle.Sources(lifecycle.EventTrigger), now.UTC()).
		Order("trigger_time ASC").
		Find(&due).Error
	if err != nil {
		return nil, lifecycle.Unavailable("find due reminders", err)
	}
	return due, nil
}

// Trigger moves r from pending to triggered if it is still pending in the store.
// applied is false when another writer got there first; that is not an error.
func (s *ReminderStore) Trigger(ctx context.Context, r models.Reminder, cycleAt time.Time) (applied bool, err error) {
	next, ok := lifecycle.MarkTriggered(r)
	if !ok {
		return false, nil
	}
	db, cancel := s.session(ctx)
	defer cancel()

	details := map[string]any{
		"trigger_time": r.TriggerTime.UTC().Format(time.RFC3339),
		"cycle_at":     cycleAt.UTC().Format(time.RFC3339Nano),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		applied, err = s.compareAndSet(tx, r.ID, r.Status, next.Status, SourceScheduler, details)
		return err
	})
	if err != nil {
		return false, translate("trigger reminder", err)
	}
	return applied, nil
}

// Complete moves a pending or triggered reminder to completed. Completing a
// completed reminder returns it unchanged with applied=false.
func (s *ReminderStore) Complete(ctx context.Context, id uint) (*models.Reminder, bool, error) {
	db, cancel := s.session(ctx)
	defer cancel()

	var result models.Reminder
	var applied bool
	err := db.Transaction(func(tx *gorm.DB) error {
		for attempt := 0; attempt < maxCASAttempts; attempt++ {
			var current models.Reminder
			if err := tx.First(&current, id).Error; err != nil {
				return err
			}
			next, ok, err := lifecycle.MarkCompleted(current)
			if err != nil {
				return err
			}
			if !ok {
				result = current
				return nil
			}
			swapped, err := s.compareAndSet(tx, id, current.Status, next.Status, SourceAPI, nil)
			if err != nil {
				return err
			}
			if swapped {
				next.UpdatedAt = s.now()
				result, applied = next, true
				return nil
			}
		}
		return errConflict
	})
	if err != nil {
		return nil, false, translate("complete reminder", err)
	}
	return &result, applied, nil
}

// Events returns the transition history of a reminder, oldest first
func (s *ReminderStore) Events(ctx context.Context, id uint) ([]models.ReminderEvent, error) {
	db, cancel := s.session(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.Reminder{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, lifecycle.Unavailable("load reminder events", err)
	}
	if count == 0 {
		return nil, lifecycle.ErrNotFound
	}

	events := []models.ReminderEvent{}
	if err := db.Where("reminder_id = ?", id).Order("id ASC").Find(&events).Error; err != nil {
		return nil, lifecycle.Unavailable("load reminder events", err)
	}
	return events, nil
}

// compareAndSet runs UPDATE ... WHERE id = ? AND status = ? and, if it hit the
// row, appends the matching event in the same transaction
func (s *ReminderStore) compareAndSet(tx *gorm.DB, id uint, from, to models.ReminderStatus, source string, details map[string]any) (bool, error) {
	now := s.now()
	res := tx.Model(&models.Reminder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	event := models.ReminderEvent{
		ReminderID: id,
		FromStatus: from,
		ToStatus:   to,
		Source:     source,
		At:         now,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return false, err
		}
		event.Details = datatypes.JSON(raw)
	}
	if err := tx.Create(&event).Error; err != nil {
		return false, err
	}
	return true, nil
}

// translate maps driver errors onto the lifecycle error taxonomy
func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return lifecycle.ErrNotFound
	case errors.Is(err, lifecycle.ErrIllegalTransition), errors.Is(err, errConflict):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return lifecycle.Unavailable(op, err)
	}
}
