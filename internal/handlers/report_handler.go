package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Seth647/rally-watchdog/internal/middleware"
	"github.com/Seth647/rally-watchdog/internal/models"
	"github.com/Seth647/rally-watchdog/internal/services"
	"github.com/Seth647/rally-watchdog/internal/utils"
	"github.com/Seth647/rally-watchdog/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmitReportRequest — форма подачи жалобы. Обязательность полей
// проверяет сервис приема, чтобы в ответе перечислились сразу все
// пропущенные поля.
type SubmitReportRequest struct {
	VehicleNumber   string     `json:"vehicle_number"`
	IncidentType    string     `json:"incident_type"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	ReporterName    string     `json:"reporter_name"`
	ReporterContact string     `json:"reporter_contact"`
	IncidentTime    *time.Time `json:"incident_time"`
	MediaURL        string     `json:"media_url"`
}

// FingerprintIssue выдает новый клиентский fingerprint для анонимной подачи жалоб
func FingerprintIssue() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"fingerprint": utils.GenerateFingerprint()})
	}
}

// ReportSubmit принимает новую жалобу от участника ралли
func ReportSubmit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		identity := services.SubmitterIdentity{
			UserID:      c.GetString("submitter_user_id"),
			Fingerprint: c.GetString("client_fingerprint"),
		}

		svc := services.NewIntakeService(db)
		report, err := svc.Submit(c.Request.Context(), services.ReportInput{
			VehicleNumber:   req.VehicleNumber,
			IncidentType:    req.IncidentType,
			Description:     req.Description,
			Location:        req.Location,
			ReporterName:    req.ReporterName,
			ReporterContact: req.ReporterContact,
			IncidentTime:    req.IncidentTime,
			MediaURL:        req.MediaURL,
		}, identity)

		if err != nil {
			var validationErr *services.ValidationError
			var rateLimitErr *services.RateLimitError

			switch {
			case errors.As(err, &validationErr):
				middleware.TrackReportSubmission("invalid")
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  "Please fill in all required fields before submitting.",
					"fields": validationErr.Fields,
				})
			case errors.As(err, &rateLimitErr):
				middleware.TrackReportSubmission("rate_limited")
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":  rateLimitErr.Message,
					"window": rateLimitErr.Window,
				})
			default:
				middleware.TrackReportSubmission("error")
				logrus.Errorf("Ошибка при приеме жалобы: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
			}
			return
		}

		middleware.TrackReportSubmission("accepted")
		websocket.SendReportCreated(report)

		c.JSON(http.StatusCreated, report.ToResponse())
	}
}

// ReportGetAll возвращает жалобы для панели организатора с фильтром по
// статусу и поиском по номеру машины, номеру жалобы или описанию
func ReportGetAll(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Report{}).Preload("Driver").Order("created_at DESC")

		if status := c.Query("status"); status != "" && status != "all" {
			if !models.ReportStatus(status).Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown report status"})
				return
			}
			query = query.Where("status = ?", status)
		}

		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			query = query.Where(
				"vehicle_number LIKE ? OR report_number LIKE ? OR description LIKE ?",
				pattern, pattern, pattern,
			)
		}

		var reports []models.Report
		if err := query.Find(&reports).Error; err != nil {
			logrus.Errorf("Ошибка при получении жалоб: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
			return
		}

		response := make([]models.ReportResponse, 0, len(reports))
		for i := range reports {
			response = append(response, reports[i].ToResponse())
		}

		c.JSON(http.StatusOK, response)
	}
}

// ReportGetByID возвращает одну жалобу с привязанным водителем
func ReportGetByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var report models.Report
		if err := db.Preload("Driver").First(&report, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}

		c.JSON(http.StatusOK, report.ToResponse())
	}
}

// ReportUpdateStatus переводит жалобу в новый статус с контролем
// машины состояний. Повторная установка текущего статуса — no-op.
func ReportUpdateStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		newStatus := models.ReportStatus(req.Status)
		if !newStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown report status"})
			return
		}

		var report models.Report
		if err := db.First(&report, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}

		if report.Status == newStatus {
			c.JSON(http.StatusOK, gin.H{"message": "Status unchanged", "status": report.Status})
			return
		}

		if !report.Status.CanTransitionTo(newStatus) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Cannot change status from " + string(report.Status) + " to " + string(newStatus),
			})
			return
		}

		if err := db.Model(&models.Report{}).Where("id = ?", report.ID).Updates(map[string]interface{}{
			"status":     newStatus,
			"updated_at": time.Now(),
		}).Error; err != nil {
			logrus.Errorf("Ошибка при обновлении статуса жалобы %d: %v", report.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
			return
		}

		websocket.SendReportStatusUpdate(report.ID, string(newStatus))

		c.JSON(http.StatusOK, gin.H{"message": "Report status changed to " + string(newStatus), "status": newStatus})
	}
}

// ReportAssignDriver привязывает или перепривязывает водителя к жалобе
func ReportAssignDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DriverID uint `json:"driver_id" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		var report models.Report
		if err := db.First(&report, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}

		var driver models.Driver
		if err := db.First(&driver, req.DriverID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}

		if err := db.Model(&models.Report{}).Where("id = ?", report.ID).Updates(map[string]interface{}{
			"driver_id":  driver.ID,
			"updated_at": time.Now(),
		}).Error; err != nil {
			logrus.Errorf("Ошибка при привязке водителя к жалобе %d: %v", report.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign driver"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Driver assigned", "driver_id": driver.ID})
	}
}
