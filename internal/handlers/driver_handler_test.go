package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Seth647/rally-watchdog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+77011234567", normalizePhone("+7 (701) 123-45-67"))
	assert.Equal(t, "+77011234567", normalizePhone("77011234567"))
	assert.Equal(t, "", normalizePhone("---"))
	assert.Equal(t, "", normalizePhone(""))
}

func TestDriverCreate(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)

	w := doJSON(r, http.MethodPost, "/api/drivers", map[string]string{
		"driver_name":    "Марат Абенов",
		"phone_number":   "+7 (701) 123-45-67",
		"vehicle_number": " 007 ",
		"vehicle_make":   "Subaru",
	}, map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusCreated, w.Code)

	var driver models.Driver
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &driver))
	assert.Equal(t, "+77011234567", driver.PhoneNumber)
	assert.Equal(t, "007", driver.VehicleNumber)
	require.NotNil(t, driver.VehicleMake)
	assert.Equal(t, "Subaru", *driver.VehicleMake)
	assert.Nil(t, driver.VehicleModel)
}

func TestDriverCreateRejectsMissingFields(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)

	w := doJSON(r, http.MethodPost, "/api/drivers", map[string]string{
		"driver_name": "Марат Абенов",
	}, map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDriverCreateRejectsDigitlessPhone(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)

	w := doJSON(r, http.MethodPost, "/api/drivers", map[string]string{
		"driver_name":    "Марат Абенов",
		"phone_number":   "---",
		"vehicle_number": "007",
	}, map[string]string{"Authorization": "Bearer " + token})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Phone number must contain digits")
}

func TestDriverGetByVehiclePrefersLatest(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)

	old := models.Driver{
		DriverName:    "Старый экипаж",
		PhoneNumber:   "+77010000001",
		VehicleNumber: "007",
		CreatedAt:     time.Now().Add(-48 * time.Hour),
		UpdatedAt:     time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)

	fresh := models.Driver{
		DriverName:    "Новый экипаж",
		PhoneNumber:   "+77010000002",
		VehicleNumber: "007",
	}
	require.NoError(t, db.Create(&fresh).Error)

	w := doJSON(r, http.MethodGet, "/api/drivers/by-vehicle/007", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var driver models.Driver
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &driver))
	assert.Equal(t, fresh.ID, driver.ID)
}

func TestDriverGetByVehicleNotFound(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)

	w := doJSON(r, http.MethodGet, "/api/drivers/by-vehicle/404", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDriverSearch(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)

	require.NoError(t, db.Create(&models.Driver{
		DriverName: "Марат Абенов", PhoneNumber: "+77011234567", VehicleNumber: "007",
	}).Error)
	require.NoError(t, db.Create(&models.Driver{
		DriverName: "Айдос Ермеков", PhoneNumber: "+77019999999", VehicleNumber: "101",
	}).Error)

	w := doJSON(r, http.MethodGet, "/api/drivers?search=101", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var drivers []models.Driver
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drivers))
	require.Len(t, drivers, 1)
	assert.Equal(t, "Айдос Ермеков", drivers[0].DriverName)
}

func TestDriverUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db, &stubNotifier{})
	token := organizerToken(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	driver := models.Driver{DriverName: "Марат Абенов", PhoneNumber: "+77011234567", VehicleNumber: "007"}
	require.NoError(t, db.Create(&driver).Error)

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/drivers/%d", driver.ID), map[string]string{
		"driver_name":    "Марат Абенов",
		"phone_number":   "+77015555555",
		"vehicle_number": "008",
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Driver
	require.NoError(t, db.First(&updated, driver.ID).Error)
	assert.Equal(t, "+77015555555", updated.PhoneNumber)
	assert.Equal(t, "008", updated.VehicleNumber)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/drivers/%d", driver.ID), nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Driver{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
