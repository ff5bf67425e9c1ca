package server

import (
	"net/http"
	"time"

	"reminders/internal/auth"
	"reminders/internal/config"
	"reminders/internal/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires the HTTP surface.
//
// Authorization policy: listing, lookup, history and completion are public;
// only creation requires a bearer token.
func NewRouter(cfg config.ServerConfig, h *handlers.Handler, tokens *auth.TokenIssuer, log zerolog.Logger) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	router.Use(RequestID(), AccessLog(log), gin.Recovery(), cors.New(corsConfig(cfg.CORSOrigins)))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	router.GET("/health", h.Health)
	router.POST("/login", h.Login)

	reminders := router.Group("/reminders")
	{
		reminders.GET("", h.ListReminders)
		reminders.GET("/triggered", h.ListTriggered)
		reminders.GET("/:id", h.GetReminder)
		reminders.GET("/:id/events", h.ReminderEvents)
		reminders.PUT("/:id/complete", h.CompleteReminder)
	}

	protected := router.Group("/reminders")
	protected.Use(auth.AuthMiddleware(tokens))
	{
		protected.POST("", h.CreateReminder)
	}

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
