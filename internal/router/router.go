package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pacsbot/internal/handler/api"
	"pacsbot/internal/middleware"
	"pacsbot/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, db *gorm.DB, logger *zap.Logger) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	statuses := repository.NewStatusRepository(db, logger)
	toggles := repository.NewToggleRepository(db)

	statusHandler := api.NewStatusHandler(statuses, logger)
	toggleHandler := api.NewToggleHandler(toggles, logger)

	e.GET("/api/toggle-state", toggleHandler.Get)
	e.POST("/api/toggle-state", toggleHandler.Set)
	e.POST("/api/fetch-patients", statusHandler.Latest)
}
