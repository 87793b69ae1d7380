package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// NotificationTarget описывает получателя предупреждения
type NotificationTarget struct {
	Name  string
	Phone string
}

// Notifier — единый контракт внешнего SMS-провайдера. Конкретный
// транспорт является деталью реализации провайдера.
type Notifier interface {
	// Configured сообщает, заданы ли учетные данные провайдера
	Configured() bool
	// Send отправляет сообщение по номеру телефона. Любая ошибка
	// провайдера возвращается вызывающему как обычная ошибка.
	Send(ctx context.Context, target NotificationTarget, message string, parameters map[string]string) error
}

// NotificationAPIService отправляет SMS через REST API NotificationAPI
type NotificationAPIService struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
}

// NewNotificationAPIService создает клиент NotificationAPI из переменных
// окружения. Отсутствие учетных данных не является ошибкой — отправка
// будет пропущена с зафиксированным статусом skipped.
func NewNotificationAPIService() *NotificationAPIService {
	baseURL := os.Getenv("NOTIFICATIONAPI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.notificationapi.com"
	}

	return &NotificationAPIService{
		clientID:     os.Getenv("NOTIFICATIONAPI_CLIENT_ID"),
		clientSecret: os.Getenv("NOTIFICATIONAPI_CLIENT_SECRET"),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

func (s *NotificationAPIService) Configured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

func (s *NotificationAPIService) Send(ctx context.Context, target NotificationTarget, message string, parameters map[string]string) error {
	phone := strings.TrimSpace(target.Phone)
	if phone == "" {
		return fmt.Errorf("номер телефона не может быть пустым")
	}

	name := target.Name
	if name == "" {
		name = "driver"
	}

	payload := map[string]interface{}{
		"type": "rally_watchdog_warning",
		"to": map[string]string{
			"id":     name,
			"number": phone,
		},
		"parameters": parameters,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге данных: %w", err)
	}

	url := fmt.Sprintf("%s/%s/sender", s.baseURL, s.clientID)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка при отправке запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("NotificationAPI request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}
