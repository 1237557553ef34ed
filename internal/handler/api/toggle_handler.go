package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pacsbot/internal/repository"
)

// ToggleHandler exposes the automation on/off switch.
type ToggleHandler struct {
	toggles *repository.ToggleRepository
	logger  *zap.Logger
}

func NewToggleHandler(toggles *repository.ToggleRepository, logger *zap.Logger) *ToggleHandler {
	return &ToggleHandler{toggles: toggles, logger: logger}
}

// Get returns the latest toggle value, false when no record exists.
// GET /api/toggle-state
func (h *ToggleHandler) Get(c echo.Context) error {
	toggle, err := h.toggles.Latest()
	if err != nil {
		h.logger.Error("Error fetching toggle state", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to fetch toggle state",
		})
	}
	enabled := toggle != nil && toggle.IsEnabled
	return c.JSON(http.StatusOK, map[string]interface{}{
		"isEnabled": enabled,
	})
}

// Set appends a new toggle record and returns it.
// POST /api/toggle-state
func (h *ToggleHandler) Set(c echo.Context) error {
	var req struct {
		IsEnabled bool `json:"isEnabled"`
	}
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Error saving toggle state", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to save toggle state",
		})
	}

	toggle, err := h.toggles.Append(req.IsEnabled)
	if err != nil {
		h.logger.Error("Error saving toggle state", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to save toggle state",
		})
	}
	return c.JSON(http.StatusOK, toggle)
}
