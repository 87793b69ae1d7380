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

// Лимиты подачи жалоб: скользящие окна по количеству уже поданных
// жалоб от того же отправителя. Окна считаются запросами по истории,
// а не счетчиком со сбросом — это исключает обход на границе окна и
// не требует фоновой очистки.
const (
	shortWindow      = 3 * time.Hour
	shortWindowLimit = 3
	longWindow       = 24 * time.Hour
	longWindowLimit  = 6
)

// SubmitterIdentity — ключ для рейт-лимита: id авторизованного
// пользователя либо клиентский fingerprint. Это эвристика против
// злоупотреблений, а не граница безопасности: потеря fingerprint
// на клиенте начинает историю лимитов заново.
type SubmitterIdentity struct {
	UserID      string
	Fingerprint string
}

// column возвращает колонку и значение для запросов по истории жалоб.
// Авторизованный пользователь имеет приоритет над fingerprint.
func (i SubmitterIdentity) column() (string, string) {
	if i.UserID != "" {
		return "user_id", i.UserID
	}
	return "client_fingerprint", i.Fingerprint
}

// ReportInput — входные данные формы жалобы
type ReportInput struct {
	VehicleNumber   string
	IncidentType    string
	Description     string
	Location        string
	ReporterName    string
	ReporterContact string
	IncidentTime    *time.Time
	MediaURL        string
}

// IntakeService принимает новые жалобы: валидация, рейт-лимит,
// привязка водителя по номеру машины и запись в хранилище.
type IntakeService struct {
	db    *gorm.DB
	cache *DriverCache
}

func NewIntakeService(db *gorm.DB) *IntakeService {
	return &IntakeService{
		db:    db,
		cache: NewDriverCache(),
	}
}

// Submit проверяет и сохраняет новую жалобу. При успехе создается ровно
// одна запись со статусом pending; при любой ошибке записей не остается.
func (s *IntakeService) Submit(ctx context.Context, input ReportInput, identity SubmitterIdentity) (*models.Report, error) {
	if identity.UserID == "" && identity.Fingerprint == "" {
		return nil, fmt.Errorf("отправитель жалобы не определен")
	}

	// Валидация собирает все нарушения сразу, а не только первое
	fields := make(map[string]string)

	vehicleNumber := strings.TrimSpace(input.VehicleNumber)
	if vehicleNumber == "" {
		fields["vehicle_number"] = "Vehicle number is required."
	}

	incidentType := strings.TrimSpace(input.IncidentType)
	if incidentType == "" {
		fields["incident_type"] = "Select an incident type."
	} else if !models.ValidIncidentType(incidentType) {
		fields["incident_type"] = "Unknown incident type."
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		fields["description"] = "Description is required."
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// Скользящие окна рейт-лимита. Проверка и вставка не изолированы
	// транзакцией: одновременные запросы одного отправителя могут
	// слегка превысить лимит, это допустимая неточность.
	column, value := identity.column()

	var shortCount int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where(column+" = ? AND created_at >= ?", value, time.Now().Add(-shortWindow)).
		Count(&shortCount).Error; err != nil {
		return nil, fmt.Errorf("ошибка при подсчете жалоб за 3 часа: %w", err)
	}
	if shortCount >= shortWindowLimit {
		return nil, &RateLimitError{
			Window:  "3 reports / 3 hours",
			Message: "You can only submit 3 incident reports every 3 hours. Please wait before submitting another report.",
		}
	}

	var longCount int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where(column+" = ? AND created_at >= ?", value, time.Now().Add(-longWindow)).
		Count(&longCount).Error; err != nil {
		return nil, fmt.Errorf("ошибка при подсчете жалоб за 24 часа: %w", err)
	}
	if longCount >= longWindowLimit {
		return nil, &RateLimitError{
			Window:  "6 reports / 24 hours",
			Message: "You can only submit 6 incident reports within 24 hours. Please wait before submitting again tomorrow.",
		}
	}

	report := models.Report{
		ReportNumber:    GenerateReportNumber(ctx),
		VehicleNumber:   vehicleNumber,
		IncidentType:    incidentType,
		Description:     description,
		Location:        optional(input.Location),
		ReporterName:    optional(input.ReporterName),
		ReporterContact: optional(input.ReporterContact),
		IncidentTime:    input.IncidentTime,
		MediaURL:        optional(input.MediaURL),
		Status:          models.ReportStatusPending,
		DriverID:        s.lookupDriver(ctx, vehicleNumber),
	}

	if identity.UserID != "" {
		report.UserID = &identity.UserID
	} else {
		report.ClientFingerprint = &identity.Fingerprint
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("ошибка при сохранении жалобы: %w", err)
	}

	logrus.Infof("Принята жалоба %s на машину %s (%s)", report.ReportNumber, report.VehicleNumber, report.IncidentType)

	return &report, nil
}

// lookupDriver ищет водителя по номеру машины для привязки к жалобе.
// Дубликаты номеров разрешаются в пользу последней обновленной записи.
// Отсутствие водителя не является ошибкой — жалоба остается без привязки.
func (s *IntakeService) lookupDriver(ctx context.Context, vehicleNumber string) *uint {
	if id, ok := s.cache.GetDriverID(ctx, vehicleNumber); ok {
		return &id
	}

	var driver models.Driver
	err := s.db.WithContext(ctx).
		Where("vehicle_number = ?", vehicleNumber).
		Order("updated_at DESC").
		First(&driver).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.Warnf("Ошибка при поиске водителя по номеру %s: %v", vehicleNumber, err)
		}
		return nil
	}

	s.cache.SetDriverID(ctx, vehicleNumber, driver.ID)

	return &driver.ID
}

// optional превращает пустую после обрезки строку в nil
func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
