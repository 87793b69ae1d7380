package models

import (
	"time"
)

type DeliveryStatus string

const (
	DeliveryStatusSent    DeliveryStatus = "sent"    // Уведомление доставлено провайдеру
	DeliveryStatusSkipped DeliveryStatus = "skipped" // Провайдер не настроен
	DeliveryStatusFailed  DeliveryStatus = "failed"  // Ошибка провайдера или таймаут
)

// Warning представляет запись журнала об одной попытке отправки
// предупреждения водителю. Записи создаются при каждой попытке и
// никогда не изменяются.
type Warning struct {
	ID             uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	ReportID       uint           `json:"report_id" gorm:"column:report_id;not null;index"`
	DriverID       uint           `json:"driver_id" gorm:"column:driver_id;not null;index"`
	WarningType    string         `json:"warning_type" gorm:"column:warning_type;not null;type:varchar(20);default:'sms'"`
	Message        string         `json:"message" gorm:"column:message;not null;type:text"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" gorm:"column:delivery_status;type:varchar(20);not null"`
	ErrorReason    *string        `json:"error_reason,omitempty" gorm:"column:error_reason;type:text"`
	SentAt         time.Time      `json:"sent_at" gorm:"column:sent_at;autoCreateTime;type:timestamp with time zone"`
	Report         Report         `json:"-" gorm:"foreignKey:ReportID"`
	Driver         Driver         `json:"-" gorm:"foreignKey:DriverID"`
}
