package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pacsbot/internal/repository"
)

// StatusHandler exposes the latest fetch run outcome to the UI.
type StatusHandler struct {
	statuses *repository.StatusRepository
	logger   *zap.Logger
}

func NewStatusHandler(statuses *repository.StatusRepository, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{statuses: statuses, logger: logger}
}

// Latest returns the most recent status record.
// POST /api/fetch-patients
func (h *StatusHandler) Latest(c echo.Context) error {
	status, err := h.statuses.Latest()
	if err != nil || status == nil {
		if err != nil {
			h.logger.Error("Error fetching status", zap.Error(err))
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"lastFetch":    "",
			"status":       "error",
			"message":      "Failed to read status",
			"patientCount": 0,
		})
	}
	return c.JSON(http.StatusOK, status)
}
