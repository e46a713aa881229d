package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"test12/internal/services"
)

// AdminHandler serves the admin routes. Authentication happens in the
// security.AdminAuth middleware bound to the route group.
type AdminHandler struct {
	matchService *services.MatchService
}

func NewAdminHandler(matchService *services.MatchService) *AdminHandler {
	return &AdminHandler{matchService: matchService}
}

// GetState - the full reconciled snapshot
func (h *AdminHandler) GetState(e *core.RequestEvent) error {
	view, err := h.matchService.AdminState(e.Request.Context())
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"ok":     true,
		"now_ms": view.NowMs,
		"state":  view.Snapshot,
	})
}

// RemoveApp - take a waiting app out of the pool
func (h *AdminHandler) RemoveApp(e *core.RequestEvent) error {
	appID := e.Request.PathValue("appId")

	var req struct {
		Reason string `json:"reason"`
	}
	if e.Request.ContentLength > 0 {
		if err := e.BindBody(&req); err != nil {
			return apis.NewBadRequestError("Invalid request", err)
		}
	}

	res, err := h.matchService.AdminRemove(e.Request.Context(), appID, req.Reason)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"removed": res.Removed,
		"chained": res.Chained,
	})
}

// CreateBundle - register a paid Pro Dev bundle
func (h *AdminHandler) CreateBundle(e *core.RequestEvent) error {
	var req services.CreateBundleRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	bundle, err := h.matchService.CreateBundle(e.Request.Context(), req)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusCreated, map[string]any{"ok": true, "bundle": bundle})
}
