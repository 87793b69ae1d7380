package handlers

import (
	"errors"
	"net/http"

	"github.com/Seth647/rally-watchdog/internal/middleware"
	"github.com/Seth647/rally-watchdog/internal/models"
	"github.com/Seth647/rally-watchdog/internal/services"
	"github.com/Seth647/rally-watchdog/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DispatchWarningRequest — запрос организатора на отправку предупреждения.
// driver_id указывается только когда нужно переопределить водителя,
// привязанного к жалобе.
type DispatchWarningRequest struct {
	ReportID uint  `json:"report_id" binding:"required"`
	DriverID *uint `json:"driver_id"`
}

// WarningDispatch отправляет предупреждение водителю по жалобе.
// Ожидаемые сбои провайдера не являются ошибками запроса: итог
// фиксируется в журнале и возвращается в теле ответа.
func WarningDispatch(db *gorm.DB, notifier services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DispatchWarningRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		svc := services.NewDispatchService(db, notifier)
		result, err := svc.Dispatch(c.Request.Context(), req.ReportID, req.DriverID)
		if err != nil {
			var notFoundErr *services.NotFoundError

			switch {
			case errors.As(err, &notFoundErr):
				c.JSON(http.StatusNotFound, gin.H{"error": "Failed to fetch " + notFoundErr.Entity})
			case errors.Is(err, services.ErrUnassignedDriver):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Driver not assigned to report"})
			case errors.Is(err, services.ErrMissingContact):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Driver phone number not found"})
			default:
				logrus.Errorf("Ошибка при отправке предупреждения: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispatch warning"})
			}
			return
		}

		middleware.TrackWarningDispatch(string(result.DeliveryStatus))
		websocket.SendWarningDispatched(req.ReportID, result.WarningID, string(result.DeliveryStatus))

		// Неуспешная, но зафиксированная попытка отдается как 202:
		// предупреждение записано в журнал, организатор может повторить
		statusCode := http.StatusOK
		if !result.Success {
			statusCode = http.StatusAccepted
		}

		c.JSON(statusCode, result)
	}
}

// WarningGetByReport возвращает журнал предупреждений по жалобе,
// новые попытки первыми
func WarningGetByReport(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var report models.Report
		if err := db.First(&report, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}

		var warnings []models.Warning
		if err := db.Where("report_id = ?", report.ID).Order("sent_at DESC").Find(&warnings).Error; err != nil {
			logrus.Errorf("Ошибка при получении журнала предупреждений: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch warnings"})
			return
		}

		c.JSON(http.StatusOK, warnings)
	}
}
