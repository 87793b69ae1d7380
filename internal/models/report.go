package models

import (
	"time"
)

type ReportStatus string

const (
	ReportStatusPending       ReportStatus = "pending"       // Ожидает рассмотрения
	ReportStatusInvestigating ReportStatus = "investigating" // Взята в работу организатором
	ReportStatusResolved      ReportStatus = "resolved"      // Закрыта, предупреждение отправлено
	ReportStatusIgnored       ReportStatus = "ignored"       // Отклонена
)

// Список допустимых типов инцидентов. Свободный текст допускается
// только через тип "Other" — детали уходят в описание жалобы.
var IncidentTypes = []string{
	"Speeding",
	"Reckless Driving",
	"Improper Overtaking",
	"Not Following Route",
	"Unsafe Behavior",
	"Equipment Violation",
	"Other",
}

// ValidIncidentType проверяет, что тип инцидента входит в список допустимых
func ValidIncidentType(incidentType string) bool {
	for _, t := range IncidentTypes {
		if t == incidentType {
			return true
		}
	}
	return false
}

// Допустимые переходы статусов жалобы. Терминальные статусы
// (resolved, ignored) исходящих переходов не имеют.
var statusTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusPending:       {ReportStatusInvestigating, ReportStatusResolved, ReportStatusIgnored},
	ReportStatusInvestigating: {ReportStatusResolved, ReportStatusIgnored},
	ReportStatusResolved:      {},
	ReportStatusIgnored:       {},
}

// Valid проверяет, что статус известен системе
func (s ReportStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal возвращает true для статусов, из которых нет переходов
func (s ReportStatus) Terminal() bool {
	next, ok := statusTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Повторная установка того же статуса разрешена и трактуется как no-op.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Report представляет жалобу участника на поведение экипажа
type Report struct {
	ID                uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	ReportNumber      string       `json:"report_number" gorm:"column:report_number;uniqueIndex;not null;type:varchar(32)"`
	VehicleNumber     string       `json:"vehicle_number" gorm:"column:vehicle_number;not null;index;type:varchar(20)"`
	IncidentType      string       `json:"incident_type" gorm:"column:incident_type;not null;type:varchar(50)"`
	Description       string       `json:"description" gorm:"column:description;not null;type:text"`
	Location          *string      `json:"location,omitempty" gorm:"column:location;type:varchar(255)"`
	ReporterName      *string      `json:"reporter_name,omitempty" gorm:"column:reporter_name;type:varchar(255)"`
	ReporterContact   *string      `json:"reporter_contact,omitempty" gorm:"column:reporter_contact;type:varchar(255)"`
	IncidentTime      *time.Time   `json:"incident_time,omitempty" gorm:"column:incident_time"`
	MediaURL          *string      `json:"media_url,omitempty" gorm:"column:media_url;type:text"`
	Status            ReportStatus `json:"status" gorm:"column:status;type:varchar(20);default:'pending';index"`
	DriverID          *uint        `json:"driver_id,omitempty" gorm:"column:driver_id;index"`
	UserID            *string      `json:"-" gorm:"column:user_id;index;type:varchar(64)"`
	ClientFingerprint *string      `json:"-" gorm:"column:client_fingerprint;index;type:varchar(64)"`
	CreatedAt         time.Time    `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
	Driver            *Driver      `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

// ReportResponse представляет ответ API с информацией о жалобе
type ReportResponse struct {
	ID            uint         `json:"id"`
	ReportNumber  string       `json:"report_number"`
	VehicleNumber string       `json:"vehicle_number"`
	IncidentType  string       `json:"incident_type"`
	Description   string       `json:"description"`
	Location      *string      `json:"location,omitempty"`
	ReporterName  *string      `json:"reporter_name,omitempty"`
	IncidentTime  *time.Time   `json:"incident_time,omitempty"`
	MediaURL      *string      `json:"media_url,omitempty"`
	Status        ReportStatus `json:"status"`
	DriverID      *uint        `json:"driver_id,omitempty"`
	DriverName    string       `json:"driver_name,omitempty"`
	DriverPhone   string       `json:"driver_phone,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ToResponse собирает ответ API, подмешивая данные привязанного водителя
func (r *Report) ToResponse() ReportResponse {
	resp := ReportResponse{
		ID:            r.ID,
		ReportNumber:  r.ReportNumber,
		VehicleNumber: r.VehicleNumber,
		IncidentType:  r.IncidentType,
		Description:   r.Description,
		Location:      r.Location,
		ReporterName:  r.ReporterName,
		IncidentTime:  r.IncidentTime,
		MediaURL:      r.MediaURL,
		Status:        r.Status,
		DriverID:      r.DriverID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if r.Driver != nil {
		resp.DriverName = r.Driver.DriverName
		resp.DriverPhone = r.Driver.PhoneNumber
	}

	return resp
}
