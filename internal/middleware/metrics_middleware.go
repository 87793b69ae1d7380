package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal - общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration - длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Длительность HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight - количество запросов в обработке
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Текущее количество запросов в обработке",
		},
	)

	// ReportsSubmittedTotal - итоги приема жалоб по результату
	ReportsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Количество попыток подачи жалоб по результату",
		},
		[]string{"result"},
	)

	// WarningsDispatchedTotal - итоги отправки предупреждений по статусу доставки
	WarningsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warnings_dispatched_total",
			Help: "Количество попыток отправки предупреждений по статусу доставки",
		},
		[]string{"delivery_status"},
	)
)

// PrometheusMiddleware собирает метрики для HTTP запросов
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// TrackReportSubmission фиксирует результат приема жалобы
// (accepted, rate_limited, invalid, error)
func TrackReportSubmission(result string) {
	ReportsSubmittedTotal.WithLabelValues(result).Inc()
}

// TrackWarningDispatch фиксирует статус доставки предупреждения
func TrackWarningDispatch(deliveryStatus string) {
	WarningsDispatchedTotal.WithLabelValues(deliveryStatus).Inc()
}
