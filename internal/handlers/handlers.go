package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"reminders/internal/auth"
	"reminders/internal/lifecycle"
	"reminders/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReminderStore is the persistence the HTTP layer depends on
type ReminderStore interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, r *models.Reminder) error
	List(ctx context.Context, status models.ReminderStatus) ([]models.Reminder, error)
	Get(ctx context.Context, id uint) (*models.Reminder, error)
	Complete(ctx context.Context, id uint) (*models.Reminder, bool, error)
	Events(ctx context.Context, id uint) ([]models.ReminderEvent, error)
}

// Handler holds the dependencies shared by all endpoints
type Handler struct {
	store       ReminderStore
	tokens      *auth.TokenIssuer
	credentials *auth.Credentials
	limiter     *loginLimiter
	location    *time.Location
	driver      string
	log         zerolog.Logger
}

// Options configures a Handler
type Options struct {
	Store       ReminderStore
	Tokens      *auth.TokenIssuer
	Credentials *auth.Credentials
	Location    *time.Location // zone for trigger times without an offset
	Driver      string         // reported by /health
	LoginRate   float64
	LoginBurst  int
	Log         zerolog.Logger
}

func New(opts Options) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:       opts.Store,
		tokens:      opts.Tokens,
		credentials: opts.Credentials,
		limiter:     newLoginLimiter(opts.LoginRate, opts.LoginBurst),
		location:    loc,
		driver:      opts.Driver,
		log:         opts.Log,
	}
}

// handleError provides a consistent way to handle and log errors
func (h *Handler) handleError(c *gin.Context, status int, message string, err error) {
	ev := h.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(err).Str("path", c.FullPath()).Int("status", status).Msg(message)
	c.JSON(status, gin.H{"error": message})
}

// respondError maps the error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		h.handleError(c, http.StatusBadRequest, ve.Error(), err)
	case errors.Is(err, lifecycle.ErrNotFound):
		h.handleError(c, http.StatusNotFound, "reminder not found", err)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrInvalidCredentials):
		h.handleError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, lifecycle.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		h.handleError(c, http.StatusServiceUnavailable, "reminder store unavailable", err)
	default:
		h.handleError(c, http.StatusInternalServerError, "internal error", err)
	}
}

// Health reports liveness and whether the store answers
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("health check: store ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active", "db": h.driver})
}
