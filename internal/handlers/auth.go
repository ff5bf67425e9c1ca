package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginRequest represents the data needed for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credential pair and issues a bearer token
func (h *Handler) Login(c *gin.Context) {
	// ClientIP only honors forwarding headers from trusted proxies
	if !h.limiter.allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusUnauthorized, "missing credentials", err)
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		h.handleError(c, http.StatusUnauthorized, "invalid credentials", err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.Username)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	h.log.Info().Str("user", req.Username).Msg("login succeeded")
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt.UTC()})
}

// maxTrackedClients caps the limiter map; it is reset when exceeded
const maxTrackedClients = 10000

// loginLimiter throttles login attempts per client address
type loginLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newLoginLimiter(perSecond float64, burst int) *loginLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &loginLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: map[string]*rate.Limiter{},
	}
}

func (l *loginLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = map[string]*rate.Limiter{}
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[client] = lim
	}
	return lim.Allow()
}
