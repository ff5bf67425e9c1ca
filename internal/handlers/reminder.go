package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"reminders/internal/auth"
	"reminders/internal/lifecycle"
	"reminders/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateReminder handles the creation of a new reminder. The route is
// protected; it also checks the token itself so it cannot be mounted open by mistake.
func (h *Handler) CreateReminder(c *gin.Context) {
	id, ok := auth.GetIdentity(c)
	if !ok {
		var err error
		if id, err = h.tokens.RequireValidToken(c); err != nil {
			h.respondError(c, err)
			return
		}
	}

	var request models.CreateReminderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.handleError(c, http.StatusBadRequest, bindingMessage(err), err)
		return
	}

	reminder, err := lifecycle.Create(request.Title, request.TriggerTime, request.Sound, h.location)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.store.Create(c.Request.Context(), reminder); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info().
		Uint("reminder_id", reminder.ID).
		Str("user", id.Username).
		Time("trigger_time", reminder.TriggerTime).
		Msg("reminder created")
	c.JSON(http.StatusCreated, gin.H{"id": reminder.ID, "reminder": reminder})
}

// ListReminders returns all reminders newest first; ?status= narrows the result
func (h *Handler) ListReminders(c *gin.Context) {
	status := models.ReminderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		h.handleError(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status), nil)
		return
	}
	h.list(c, status)
}

// ListTriggered is the dedicated path for reminders that have fired but are not completed
func (h *Handler) ListTriggered(c *gin.Context) {
	h.list(c, models.StatusTriggered)
}

func (h *Handler) list(c *gin.Context, status models.ReminderStatus) {
	reminders, err := h.store.List(c.Request.Context(), status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// GetReminder returns a single reminder
func (h *Handler) GetReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		h.respondError(c, lifecycle.ErrNotFound)
		return
	}
	reminder, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// CompleteReminder marks a reminder completed. Repeating the call is harmless.
func (h *Handler) CompleteReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		h.respondError(c, lifecycle.ErrNotFound)
		return
	}

	reminder, applied, err := h.store.Complete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if applied {
		h.log.Info().Uint("reminder_id", id).Msg("reminder completed")
	}
	c.JSON(http.StatusOK, reminder)
}

// ReminderEvents returns the status history of a reminder, oldest first
func (h *Handler) ReminderEvents(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		h.respondError(c, lifecycle.ErrNotFound)
		return
	}
	events, err := h.store.Events(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// reminderID parses the :id path parameter; anything that is not a positive
// integer cannot name a reminder
func reminderID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
