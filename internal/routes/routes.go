package routes

import (
	"github.com/Seth647/rally-watchdog/internal/handlers"
	"github.com/Seth647/rally-watchdog/internal/middleware"
	"github.com/Seth647/rally-watchdog/internal/services"
	"github.com/Seth647/rally-watchdog/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(api *gin.RouterGroup, db *gorm.DB) {
	notifier := services.NewNotificationAPIService()

	// Публичные маршруты для участников ралли
	api.GET("/fingerprint", handlers.FingerprintIssue())
	api.POST("/reports", middleware.SubmitterIdentity(), handlers.ReportSubmit(db))
	api.POST("/upload", middleware.SubmitterIdentity(), handlers.UploadMedia)

	// Маршруты панели организатора
	organizer := api.Group("")
	organizer.Use(middleware.JWTAuth(), middleware.AdminOnly())
	{
		// Жалобы
		organizer.GET("/reports", handlers.ReportGetAll(db))
		organizer.GET("/reports/:id", handlers.ReportGetByID(db))
		organizer.PUT("/reports/:id/status", handlers.ReportUpdateStatus(db))
		organizer.PUT("/reports/:id/driver", handlers.ReportAssignDriver(db))

		// Предупреждения
		organizer.POST("/warnings/dispatch", handlers.WarningDispatch(db, notifier))
		organizer.GET("/reports/:id/warnings", handlers.WarningGetByReport(db))

		// Реестр водителей
		organizer.GET("/drivers", handlers.DriverGetAll(db))
		organizer.POST("/drivers", handlers.DriverCreate(db))
		organizer.GET("/drivers/by-vehicle/:number", handlers.DriverGetByVehicle(db))
		organizer.PUT("/drivers/:id", handlers.DriverUpdate(db))
		organizer.DELETE("/drivers/:id", handlers.DriverDelete(db))

		// Живая лента для панели организатора
		organizer.GET("/ws", websocket.Handler())
	}
}
