package models

import (
	"time"
)

// Driver представляет зарегистрированный экипаж ралли.
// Номер машины должен быть уникален в рамках ралли, но на уровне БД это
// не форсируется: дубликаты разрешаются по последнему обновлению записи.
type Driver struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	DriverName       string    `json:"driver_name" gorm:"column:driver_name;not null;type:varchar(255)"`
	PhoneNumber      string    `json:"phone_number" gorm:"column:phone_number;not null;type:varchar(20)"`
	VehicleNumber    string    `json:"vehicle_number" gorm:"column:vehicle_number;not null;index;type:varchar(20)"`
	LicensePlate     *string   `json:"license_plate,omitempty" gorm:"column:license_plate;type:varchar(20)"`
	VehicleMake      *string   `json:"vehicle_make,omitempty" gorm:"column:vehicle_make;type:varchar(100)"`
	VehicleModel     *string   `json:"vehicle_model,omitempty" gorm:"column:vehicle_model;type:varchar(100)"`
	EmergencyContact *string   `json:"emergency_contact,omitempty" gorm:"column:emergency_contact;type:varchar(255)"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
}
