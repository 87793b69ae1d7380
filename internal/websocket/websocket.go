package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Seth647/rally-watchdog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Типы сообщений живой ленты организаторов
const (
	ReportCreatedType      = "REPORT_CREATED"
	ReportStatusUpdateType = "REPORT_STATUS_UPDATE"
	WarningDispatchedType  = "WARNING_DISPATCHED"
)

// Message представляет формат сообщения WebSocket
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Manager держит все подключения панели организаторов. Лента общая:
// каждое событие уходит во все активные соединения.
type Manager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

var wsManager = NewManager()

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Start запускает обработку регистраций соединений
func (manager *Manager) Start() {
	go func() {
		for {
			select {
			case conn := <-manager.register:
				manager.mutex.Lock()
				manager.clients[conn] = true
				manager.mutex.Unlock()
				logrus.Debugf("Зарегистрировано новое соединение ленты, всего: %d", manager.Count())

			case conn := <-manager.unregister:
				manager.mutex.Lock()
				if _, ok := manager.clients[conn]; ok {
					delete(manager.clients, conn)
					conn.Close()
				}
				manager.mutex.Unlock()
			}
		}
	}()
}

// Count возвращает число активных соединений
func (manager *Manager) Count() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// Broadcast рассылает сообщение во все активные соединения
func (manager *Manager) Broadcast(message *Message) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	if len(manager.clients) == 0 {
		return
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Ошибка при кодировании сообщения ленты: %v", err)
		return
	}

	for conn := range manager.clients {
		go func(c *websocket.Conn) {
			if err := c.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
				logrus.Debugf("Ошибка при отправке в ленту, отключаем клиента: %v", err)
				manager.unregister <- c
			}
		}(conn)
	}
}

// Handler обрабатывает подключения панели организаторов. Маршрут
// регистрируется за JWT middleware, поэтому соединение уже авторизовано.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Upgrade") != "websocket" {
			c.String(http.StatusBadRequest, "WebSocket connection required")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.Errorf("Ошибка обновления соединения до WebSocket: %v", err)
			return
		}

		wsManager.register <- conn

		go readLoop(conn)
	}
}

// readLoop читает входящие сообщения, отвечая только на ping
func readLoop(conn *websocket.Conn) {
	defer func() {
		wsManager.unregister <- conn
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		if msgType, ok := data["type"].(string); ok && msgType == "ping" {
			pong, _ := json.Marshal(map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			})
			if err := conn.WriteMessage(websocket.TextMessage, pong); err != nil {
				return
			}
		}
	}
}

// SendReportCreated уведомляет организаторов о новой жалобе
func SendReportCreated(report *models.Report) {
	wsManager.Broadcast(&Message{
		Type: ReportCreatedType,
		Payload: map[string]interface{}{
			"report_id":      report.ID,
			"report_number":  report.ReportNumber,
			"vehicle_number": report.VehicleNumber,
			"incident_type":  report.IncidentType,
			"status":         report.Status,
		},
	})
}

// SendReportStatusUpdate уведомляет организаторов о смене статуса жалобы
func SendReportStatusUpdate(reportID uint, status string) {
	wsManager.Broadcast(&Message{
		Type: ReportStatusUpdateType,
		Payload: map[string]interface{}{
			"report_id": reportID,
			"status":    status,
		},
	})
}

// SendWarningDispatched уведомляет организаторов об итоге отправки предупреждения
func SendWarningDispatched(reportID, warningID uint, deliveryStatus string) {
	wsManager.Broadcast(&Message{
		Type: WarningDispatchedType,
		Payload: map[string]interface{}{
			"report_id":       reportID,
			"warning_id":      warningID,
			"delivery_status": deliveryStatus,
		},
	})
}

// StartManager запускает глобальный менеджер ленты
func StartManager() {
	wsManager.Start()
}
