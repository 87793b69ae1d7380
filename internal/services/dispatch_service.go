package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seth647/rally-watchdog/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DispatchResult — итог одной попытки отправки предупреждения
type DispatchResult struct {
	Success        bool                  `json:"success"`
	DeliveryStatus models.DeliveryStatus `json:"delivery_status"`
	Message        string                `json:"message"`
	Reason         string                `json:"reason,omitempty"`
	WarningID      uint                  `json:"warning_id,omitempty"`
}

// ComposeWarningMessage детерминированно собирает текст предупреждения
// из полей жалобы
func ComposeWarningMessage(incidentType, reportNumber string) string {
	return fmt.Sprintf(
		"Rally Warning: You have been reported for %s. Please drive safely and follow rally regulations. Report #%s",
		incidentType, reportNumber,
	)
}

// DispatchService отправляет предупреждения водителям и ведет журнал
// попыток. Запись в журнал обязательна при любом исходе отправки, чтобы
// след оставался даже при сбое провайдера.
type DispatchService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewDispatchService(db *gorm.DB, notifier Notifier) *DispatchService {
	return &DispatchService{
		db:       db,
		notifier: notifier,
	}
}

// Dispatch выполняет одну попытку предупреждения по жалобе. Явно
// переданный driverID имеет приоритет над водителем, привязанным к
// жалобе. Повторные вызовы не дедуплицируются — каждая попытка дает
// новую запись журнала.
func (s *DispatchService) Dispatch(ctx context.Context, reportID uint, driverID *uint) (*DispatchResult, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "report", ID: reportID}
		}
		return nil, fmt.Errorf("ошибка при получении жалобы: %w", err)
	}

	targetDriverID := report.DriverID
	if driverID != nil {
		targetDriverID = driverID
	}
	if targetDriverID == nil {
		return nil, ErrUnassignedDriver
	}

	var driver models.Driver
	if err := s.db.WithContext(ctx).First(&driver, *targetDriverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "driver", ID: *targetDriverID}
		}
		return nil, fmt.Errorf("ошибка при получении водителя: %w", err)
	}

	if strings.TrimSpace(driver.PhoneNumber) == "" {
		return nil, ErrMissingContact
	}

	message := ComposeWarningMessage(report.IncidentType, report.ReportNumber)

	// Исход отправки всегда сводится к одному из трех статусов:
	// провайдер не настроен — skipped, ошибка провайдера — failed.
	// Сама ошибка провайдера наружу не поднимается.
	deliveryStatus := models.DeliveryStatusSent
	var reason string

	if !s.notifier.Configured() {
		deliveryStatus = models.DeliveryStatusSkipped
		reason = "NotificationAPI credentials are not configured"
	} else {
		target := NotificationTarget{
			Name:  driver.DriverName,
			Phone: driver.PhoneNumber,
		}
		parameters := map[string]string{
			"comment":        message,
			"incident_type":  report.IncidentType,
			"report_number":  report.ReportNumber,
			"vehicle_number": report.VehicleNumber,
		}

		if err := s.notifier.Send(ctx, target, message, parameters); err != nil {
			logrus.Errorf("Ошибка при отправке предупреждения по жалобе %s: %v", report.ReportNumber, err)
			deliveryStatus = models.DeliveryStatusFailed
			reason = err.Error()
		}
	}

	warning := models.Warning{
		ReportID:       report.ID,
		DriverID:       driver.ID,
		WarningType:    "sms",
		Message:        message,
		DeliveryStatus: deliveryStatus,
	}
	if reason != "" {
		warning.ErrorReason = &reason
	}

	if err := s.db.WithContext(ctx).Create(&warning).Error; err != nil {
		return nil, fmt.Errorf("ошибка при записи предупреждения в журнал: %w", err)
	}

	// Жалоба закрывается только при подтвержденной отправке; failed и
	// skipped оставляют статус как есть, чтобы организатор мог повторить.
	// Терминальные статусы не трогаем.
	if deliveryStatus == models.DeliveryStatusSent &&
		report.Status != models.ReportStatusResolved &&
		report.Status.CanTransitionTo(models.ReportStatusResolved) {
		if err := s.db.WithContext(ctx).Model(&models.Report{}).
			Where("id = ?", report.ID).
			Updates(map[string]interface{}{
				"status":     models.ReportStatusResolved,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return nil, fmt.Errorf("ошибка при обновлении статуса жалобы: %w", err)
		}
	}

	resultMessage := "Warning SMS sent successfully"
	if deliveryStatus != models.DeliveryStatusSent {
		switch {
		case reason != "":
			resultMessage = reason
		case deliveryStatus == models.DeliveryStatusSkipped:
			resultMessage = "SMS skipped"
		default:
			resultMessage = "Failed to send SMS"
		}
	}

	logrus.Infof("Предупреждение по жалобе %s водителю %d: %s", report.ReportNumber, driver.ID, deliveryStatus)

	return &DispatchResult{
		Success:        deliveryStatus == models.DeliveryStatusSent,
		DeliveryStatus: deliveryStatus,
		Message:        resultMessage,
		Reason:         reason,
		WarningID:      warning.ID,
	}, nil
}
