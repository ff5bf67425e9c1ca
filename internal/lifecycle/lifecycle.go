// Package lifecycle defines the legal status transitions of a reminder.
//
// Nothing here touches storage or transport. The scheduler and the HTTP
// handlers both route every mutation through Decide so they enforce the same
// rules. The store selects due rows from the statuses Sources reports for
// EventTrigger, and keys each conditional UPDATE on the status it read.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"reminders/internal/models"
)

// Event is something that asks a reminder to change status
type Event string

const (
	EventTrigger  Event = "trigger"
	EventComplete Event = "complete"
)

// Transition is a single allowed edge in the reminder state machine
type Transition struct {
	From  models.ReminderStatus
	To    models.ReminderStatus
	Event Event
}

var transitions = []Transition{
	{From: models.StatusPending, To: models.StatusTriggered, Event: EventTrigger},
	{From: models.StatusPending, To: models.StatusCompleted, Event: EventComplete},
	{From: models.StatusTriggered, To: models.StatusCompleted, Event: EventComplete},
}

// Decision is the outcome of applying an event to a status
type Decision struct {
	To    models.ReminderStatus
	Apply bool // false means the event is an idempotent no-op
}

// Decide returns what should happen when ev is applied to a reminder in status from.
//
// Triggering anything that is not pending is a skip. Completing an already
// completed reminder is a skip. Both are successes, not errors.
func Decide(from models.ReminderStatus, ev Event) (Decision, error) {
	for _, t := range transitions {
		if t.From == from && t.Event == ev {
			return Decision{To: t.To, Apply: true}, nil
		}
	}
	if !from.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, from)
	}
	switch ev {
	case EventTrigger:
		return Decision{To: from}, nil
	case EventComplete:
		if from == models.StatusCompleted {
			return Decision{To: from}, nil
		}
	}
	return Decision{}, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, ev, from)
}

// Sources lists the statuses from which ev actually changes a reminder
func Sources(ev Event) []models.ReminderStatus {
	var out []models.ReminderStatus
	for _, t := range transitions {
		if t.Event == ev {
			out = append(out, t.From)
		}
	}
	return out
}

// Create builds a new pending reminder from client input.
// Naive timestamps are read in loc; the stored trigger time is always UTC.
func Create(title, triggerTime, sound string, loc *time.Location) (*models.Reminder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "must not be empty"}
	}
	at, err := ParseTriggerTime(triggerTime, loc)
	if err != nil {
		return nil, err
	}
	sound = strings.TrimSpace(sound)
	if sound == "" {
		sound = models.DefaultSound
	}
	return &models.Reminder{
		Title:       title,
		TriggerTime: at,
		Sound:       sound,
		Status:      models.StatusPending,
	}, nil
}

// MarkTriggered moves a pending reminder to triggered.
// Any other status is returned unchanged with applied=false.
func MarkTriggered(r models.Reminder) (models.Reminder, bool) {
	d, err := Decide(r.Status, EventTrigger)
	if err != nil || !d.Apply {
		return r, false
	}
	r.Status = d.To
	return r, true
}

// MarkCompleted moves a pending or triggered reminder to completed.
// Completing a completed reminder is an idempotent success with applied=false.
func MarkCompleted(r models.Reminder) (models.Reminder, bool, error) {
	d, err := Decide(r.Status, EventComplete)
	if err != nil {
		return r, false, err
	}
	if !d.Apply {
		return r, false, nil
	}
	r.Status = d.To
	return r, true, nil
}

// triggerLayouts are tried in order; the first is the only one that carries an offset
var triggerLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTriggerTime parses a client supplied trigger time and normalizes it to UTC
func ParseTriggerTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "trigger_time", Message: "is required"}
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range triggerLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{
		Field:   "trigger_time",
		Message: fmt.Sprintf("%q is not a valid timestamp (expected e.g. 2025-01-01T00:00:00)", s),
	}
}
