package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Seth647/rally-watchdog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentCall struct {
	target     NotificationTarget
	message    string
	parameters map[string]string
}

// fakeNotifier подменяет NotificationAPI в тестах
type fakeNotifier struct {
	configured bool
	sendErr    error
	calls      []sentCall
}

func (f *fakeNotifier) Configured() bool {
	return f.configured
}

func (f *fakeNotifier) Send(ctx context.Context, target NotificationTarget, message string, parameters map[string]string) error {
	f.calls = append(f.calls, sentCall{target: target, message: message, parameters: parameters})
	return f.sendErr
}

func seedDriverAndReport(t *testing.T, db *gorm.DB, phone string) (models.Driver, models.Report) {
	t.Helper()

	driver := models.Driver{
		DriverName:    "Марат Абенов",
		PhoneNumber:   phone,
		VehicleNumber: "007",
	}
	require.NoError(t, db.Create(&driver).Error)

	report := models.Report{
		ReportNumber:  "RW-20260829-0001",
		VehicleNumber: "007",
		IncidentType:  "Speeding",
		Description:   "Crew 007 was speeding through the spectator zone",
		Status:        models.ReportStatusPending,
		DriverID:      &driver.ID,
	}
	require.NoError(t, db.Create(&report).Error)

	return driver, report
}

func TestComposeWarningMessage(t *testing.T) {
	msg := ComposeWarningMessage("Speeding", "RW-20260829-0001")
	assert.Equal(t,
		"Rally Warning: You have been reported for Speeding. Please drive safely and follow rally regulations. Report #RW-20260829-0001",
		msg,
	)

	// Текст детерминирован: одинаковые поля дают одинаковое сообщение
	assert.Equal(t, msg, ComposeWarningMessage("Speeding", "RW-20260829-0001"))
}

func TestDispatchSentResolvesReport(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: true}
	svc := NewDispatchService(db, notifier)

	driver, report := seedDriverAndReport(t, db, "+77011234567")

	result, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.DeliveryStatusSent, result.DeliveryStatus)
	assert.Equal(t, "Warning SMS sent successfully", result.Message)
	assert.NotZero(t, result.WarningID)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	assert.Equal(t, driver.PhoneNumber, call.target.Phone)
	assert.Equal(t, "RW-20260829-0001", call.parameters["report_number"])
	assert.Equal(t, "Speeding", call.parameters["incident_type"])
	assert.Equal(t, "007", call.parameters["vehicle_number"])

	var warning models.Warning
	require.NoError(t, db.First(&warning, result.WarningID).Error)
	assert.Equal(t, report.ID, warning.ReportID)
	assert.Equal(t, driver.ID, warning.DriverID)
	assert.Equal(t, models.DeliveryStatusSent, warning.DeliveryStatus)
	assert.Nil(t, warning.ErrorReason)

	var updated models.Report
	require.NoError(t, db.First(&updated, report.ID).Error)
	assert.Equal(t, models.ReportStatusResolved, updated.Status)
}

func TestDispatchSkippedWhenNotConfigured(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: false}
	svc := NewDispatchService(db, notifier)

	_, report := seedDriverAndReport(t, db, "+77011234567")

	result, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, models.DeliveryStatusSkipped, result.DeliveryStatus)
	assert.Equal(t, "NotificationAPI credentials are not configured", result.Reason)
	assert.Empty(t, notifier.calls)

	// Журнальная запись создается даже без попытки отправки
	var warning models.Warning
	require.NoError(t, db.First(&warning, result.WarningID).Error)
	assert.Equal(t, models.DeliveryStatusSkipped, warning.DeliveryStatus)

	// Пропуск не закрывает жалобу
	var updated models.Report
	require.NoError(t, db.First(&updated, report.ID).Error)
	assert.Equal(t, models.ReportStatusPending, updated.Status)
}

func TestDispatchFailedKeepsStatus(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: true, sendErr: errors.New("upstream timeout")}
	svc := NewDispatchService(db, notifier)

	_, report := seedDriverAndReport(t, db, "+77011234567")

	result, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, models.DeliveryStatusFailed, result.DeliveryStatus)
	assert.Equal(t, "upstream timeout", result.Reason)

	var warning models.Warning
	require.NoError(t, db.First(&warning, result.WarningID).Error)
	assert.Equal(t, models.DeliveryStatusFailed, warning.DeliveryStatus)
	require.NotNil(t, warning.ErrorReason)
	assert.Equal(t, "upstream timeout", *warning.ErrorReason)

	var updated models.Report
	require.NoError(t, db.First(&updated, report.ID).Error)
	assert.Equal(t, models.ReportStatusPending, updated.Status)
}

func TestDispatchMissingPhoneLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: true}
	svc := NewDispatchService(db, notifier)

	_, report := seedDriverAndReport(t, db, "")

	_, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.ErrorIs(t, err, ErrMissingContact)

	// Без контакта попытка не предпринимается и в журнал не пишется
	var count int64
	require.NoError(t, db.Model(&models.Warning{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDispatchUnassignedDriver(t *testing.T) {
	db := newTestDB(t)
	svc := NewDispatchService(db, &fakeNotifier{configured: true})

	report := models.Report{
		ReportNumber:  "RW-20260829-0002",
		VehicleNumber: "999",
		IncidentType:  "Other",
		Description:   "unknown crew",
		Status:        models.ReportStatusPending,
	}
	require.NoError(t, db.Create(&report).Error)

	_, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.ErrorIs(t, err, ErrUnassignedDriver)
}

func TestDispatchExplicitDriverOverride(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: true}
	svc := NewDispatchService(db, notifier)

	_, report := seedDriverAndReport(t, db, "+77011234567")

	override := models.Driver{
		DriverName:    "Второй пилот",
		PhoneNumber:   "+77019999999",
		VehicleNumber: "008",
	}
	require.NoError(t, db.Create(&override).Error)

	result, err := svc.Dispatch(context.Background(), report.ID, &override.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "+77019999999", notifier.calls[0].target.Phone)

	var warning models.Warning
	require.NoError(t, db.First(&warning, result.WarningID).Error)
	assert.Equal(t, override.ID, warning.DriverID)
}

func TestDispatchReportNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewDispatchService(db, &fakeNotifier{configured: true})

	_, err := svc.Dispatch(context.Background(), 12345, nil)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "report", nf.Entity)
}

func TestDispatchRepeatedAppendsJournal(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: true}
	svc := NewDispatchService(db, notifier)

	_, report := seedDriverAndReport(t, db, "+77011234567")

	first, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.NoError(t, err)
	second, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.WarningID, second.WarningID)

	var count int64
	require.NoError(t, db.Model(&models.Warning{}).Where("report_id = ?", report.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// Повторная отправка по уже закрытой жалобе не меняет ее статус
	var updated models.Report
	require.NoError(t, db.First(&updated, report.ID).Error)
	assert.Equal(t, models.ReportStatusResolved, updated.Status)
}

func TestDispatchIgnoredStaysIgnored(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{configured: true}
	svc := NewDispatchService(db, notifier)

	_, report := seedDriverAndReport(t, db, "+77011234567")
	require.NoError(t, db.Model(&models.Report{}).Where("id = ?", report.ID).
		Update("status", models.ReportStatusIgnored).Error)

	result, err := svc.Dispatch(context.Background(), report.ID, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	// Терминальный статус не перезаписывается даже успешной отправкой
	var updated models.Report
	require.NoError(t, db.First(&updated, report.ID).Error)
	assert.Equal(t, models.ReportStatusIgnored, updated.Status)
}
