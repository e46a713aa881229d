package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"test12/internal/services"
	"test12/utils"
)

type MatchHandler struct {
	matchService *services.MatchService
	redis        *redis.Client
}

// NewMatchHandler builds the user-facing handlers. redisClient may be nil.
func NewMatchHandler(matchService *services.MatchService, redisClient *redis.Client) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		redis:        redisClient,
	}
}

// Health - liveness plus redis reachability when redis is configured
func (h *MatchHandler) Health(e *core.RequestEvent) error {
	if h.redis != nil {
		if err := utils.RedisHealthCheck(h.redis); err != nil {
			return e.JSON(http.StatusServiceUnavailable, map[string]any{
				"ok":     false,
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return e.JSON(http.StatusOK, map[string]any{"ok": true, "status": "healthy"})
}

// Submit - queue an app for testing
func (h *MatchHandler) Submit(e *core.RequestEvent) error {
	var req services.SubmitRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	res, err := h.matchService.Submit(e.Request.Context(), req)
	if err != nil {
		return respondError(e, err)
	}

	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	return e.JSON(code, map[string]any{
		"ok":      true,
		"created": res.Created,
		"app":     res.App,
		"entry":   res.Entry,
		"session": res.Session,
	})
}

// GetUser - the user's submission, queue position, room and stats
func (h *MatchHandler) GetUser(e *core.RequestEvent) error {
	userID := e.Request.PathValue("userId")

	view, err := h.matchService.UserView(e.Request.Context(), userID)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ok": true, "view": view})
}

func (h *MatchHandler) Heartbeat(e *core.RequestEvent) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	entry, err := h.matchService.Heartbeat(e.Request.Context(), req.UserID)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ok": true, "entry": entry})
}

// RecordTest - record a completed peer test
func (h *MatchHandler) RecordTest(e *core.RequestEvent) error {
	var req services.RecordTestRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	entry, err := h.matchService.RecordTest(e.Request.Context(), req)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ok": true, "entry": entry})
}
