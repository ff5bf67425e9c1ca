package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultSound is used when a reminder is created without a sound label
const DefaultSound = "default"

// ReminderStatus represents where a reminder is in its lifecycle
type ReminderStatus string

const (
	StatusPending   ReminderStatus = "pending"
	StatusTriggered ReminderStatus = "triggered"
	StatusCompleted ReminderStatus = "completed"
)

// Valid reports whether s is one of the known statuses
func (s ReminderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusTriggered, StatusCompleted:
		return true
	}
	return false
}

// Reminder is a titled, timed record that moves from pending to triggered to completed
type Reminder struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	TriggerTime time.Time      `gorm:"not null;index:idx_reminder_status_trigger,priority:2" json:"trigger_time"`
	Sound       string         `gorm:"type:text;not null;default:'default'" json:"sound"`
	Status      ReminderStatus `gorm:"size:16;not null;default:'pending';index:idx_reminder_status_trigger,priority:1" json:"status"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for reminders
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	if r.Sound == "" {
		r.Sound = DefaultSound
	}
	return nil
}

// ReminderEvent records one applied status transition of a reminder
type ReminderEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ReminderID uint           `gorm:"not null;index" json:"reminder_id"`
	FromStatus ReminderStatus `gorm:"size:16" json:"from_status,omitempty"` // empty for creation
	ToStatus   ReminderStatus `gorm:"size:16;not null" json:"to_status"`
	Source     string         `gorm:"size:16;not null" json:"source"` // "api" or "scheduler"
	Details    datatypes.JSON `gorm:"type:json" json:"details,omitempty"`
	At         time.Time      `gorm:"not null" json:"at"`
}

// TableName specifies the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminders"
}

// TableName specifies the table name for the ReminderEvent model
func (ReminderEvent) TableName() string {
	return "reminder_events"
}

// CreateReminderRequest represents the data needed to create a reminder.
// There is no status field; new reminders always start pending.
type CreateReminderRequest struct {
	Title       string `json:"title" binding:"required"`
	TriggerTime string `json:"trigger_time" binding:"required"`
	Sound       string `json:"sound"`
}
