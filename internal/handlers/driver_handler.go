package handlers

import (
	"net/http"
	"strings"

	"github.com/Seth647/rally-watchdog/internal/models"
	"github.com/Seth647/rally-watchdog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DriverRequest — форма реестра водителей
type DriverRequest struct {
	DriverName       string `json:"driver_name" binding:"required"`
	PhoneNumber      string `json:"phone_number" binding:"required"`
	VehicleNumber    string `json:"vehicle_number" binding:"required"`
	LicensePlate     string `json:"license_plate"`
	VehicleMake      string `json:"vehicle_make"`
	VehicleModel     string `json:"vehicle_model"`
	EmergencyContact string `json:"emergency_contact"`
}

// normalizePhone приводит номер к виду с ведущим плюсом и одними цифрами
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	digits := strings.Builder{}
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "+" + digits.String()
}

func optionalField(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// DriverCreate регистрирует экипаж в реестре
func DriverCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DriverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		phone := normalizePhone(req.PhoneNumber)
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number must contain digits"})
			return
		}

		driver := models.Driver{
			DriverName:       strings.TrimSpace(req.DriverName),
			PhoneNumber:      phone,
			VehicleNumber:    strings.TrimSpace(req.VehicleNumber),
			LicensePlate:     optionalField(req.LicensePlate),
			VehicleMake:      optionalField(req.VehicleMake),
			VehicleModel:     optionalField(req.VehicleModel),
			EmergencyContact: optionalField(req.EmergencyContact),
		}

		if err := db.Create(&driver).Error; err != nil {
			logrus.Errorf("Ошибка при создании водителя: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create driver"})
			return
		}

		// Реестр изменился — сбрасываем кэш привязки по номеру машины
		services.NewDriverCache().Invalidate(c.Request.Context(), driver.VehicleNumber)

		c.JSON(http.StatusCreated, driver)
	}
}

// DriverGetAll возвращает реестр водителей с поиском по имени,
// телефону или номеру машины
func DriverGetAll(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Driver{}).Order("created_at DESC")

		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			query = query.Where(
				"driver_name LIKE ? OR phone_number LIKE ? OR vehicle_number LIKE ?",
				pattern, pattern, pattern,
			)
		}

		var drivers []models.Driver
		if err := query.Find(&drivers).Error; err != nil {
			logrus.Errorf("Ошибка при получении реестра водителей: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch drivers"})
			return
		}

		c.JSON(http.StatusOK, drivers)
	}
}

// DriverGetByVehicle ищет водителя по номеру машины. Дубликаты номеров
// разрешаются в пользу последней обновленной записи — тем же правилом,
// что и автопривязка при подаче жалобы.
func DriverGetByVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleNumber := strings.TrimSpace(c.Param("number"))

		var driver models.Driver
		err := db.Where("vehicle_number = ?", vehicleNumber).
			Order("updated_at DESC").
			First(&driver).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}

		c.JSON(http.StatusOK, driver)
	}
}

// DriverUpdate обновляет запись реестра
func DriverUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DriverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		var driver models.Driver
		if err := db.First(&driver, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}

		phone := normalizePhone(req.PhoneNumber)
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number must contain digits"})
			return
		}

		previousVehicle := driver.VehicleNumber

		driver.DriverName = strings.TrimSpace(req.DriverName)
		driver.PhoneNumber = phone
		driver.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
		driver.LicensePlate = optionalField(req.LicensePlate)
		driver.VehicleMake = optionalField(req.VehicleMake)
		driver.VehicleModel = optionalField(req.VehicleModel)
		driver.EmergencyContact = optionalField(req.EmergencyContact)

		if err := db.Save(&driver).Error; err != nil {
			logrus.Errorf("Ошибка при обновлении водителя %d: %v", driver.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update driver"})
			return
		}

		cache := services.NewDriverCache()
		cache.Invalidate(c.Request.Context(), previousVehicle)
		cache.Invalidate(c.Request.Context(), driver.VehicleNumber)

		c.JSON(http.StatusOK, driver)
	}
}

// DriverDelete удаляет запись реестра. Жалобы сохраняют driver_id:
// отправка предупреждения по ним вернет "driver not found".
func DriverDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var driver models.Driver
		if err := db.First(&driver, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}

		if err := db.Delete(&driver).Error; err != nil {
			logrus.Errorf("Ошибка при удалении водителя %d: %v", driver.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete driver"})
			return
		}

		services.NewDriverCache().Invalidate(c.Request.Context(), driver.VehicleNumber)

		c.JSON(http.StatusOK, gin.H{"message": "Driver deleted"})
	}
}
