package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Seth647/rally-watchdog/internal/logger"
	"github.com/Seth647/rally-watchdog/internal/middleware"
	"github.com/Seth647/rally-watchdog/internal/models"
	"github.com/Seth647/rally-watchdog/internal/routes"
	"github.com/Seth647/rally-watchdog/internal/services"
	"github.com/Seth647/rally-watchdog/internal/websocket"

	rdb "github.com/Seth647/rally-watchdog/internal/db"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Error),
		})
		if err == nil {
			// Настройка пула соединений с БД
			sqlDB, err := db.DB()
			if err != nil {
				return nil, fmt.Errorf("не удалось получить доступ к sql.DB: %w", err)
			}

			maxOpenConns := 100
			maxIdleConns := 25
			connMaxLifetime := 60

			if val, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil && val > 0 {
				maxOpenConns = val
			}

			if val, err := strconv.Atoi(os.Getenv("DB_MAX_IDLE_CONNS")); err == nil && val > 0 {
				maxIdleConns = val
			}

			if val, err := strconv.Atoi(os.Getenv("DB_CONN_MAX_LIFETIME_MINUTES")); err == nil && val > 0 {
				connMaxLifetime = val
			}

			sqlDB.SetMaxOpenConns(maxOpenConns)
			sqlDB.SetMaxIdleConns(maxIdleConns)
			sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

			return db, nil
		}
		logrus.Warnf("Попытка подключения к БД %d из %d не удалась: %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("не удалось подключиться к базе данных после %d попыток: %v", maxAttempts, err)
}

func main() {
	// Устанавливаем режим релиза для продакшена
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := godotenv.Load(); err != nil {
		logrus.Info("Файл .env не найден, используем переменные окружения")
	}

	logger.Setup()

	// Подключение к базе данных
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)

	db, err := connectWithRetry(dsn, 5, 5*time.Second)
	if err != nil {
		logrus.Fatal("Ошибка подключения к базе данных: ", err)
	}

	// Подключение к Redis. Без Redis сервис продолжает работать:
	// кэш водителей отключается, номера жалоб выдаются со случайным
	// суффиксом вместо сквозной нумерации.
	redisClient, err := rdb.NewRedisClient()
	if err != nil {
		logrus.Warn("Redis недоступен, продолжаем без кэширования: ", err)
	} else {
		logrus.Info("Успешное подключение к Redis")
		defer redisClient.Close()
		services.SetRedisClient(redisClient)
	}

	// Автоматическая миграция моделей
	if err := db.AutoMigrate(
		&models.Driver{},
		&models.Report{},
		&models.Warning{},
	); err != nil {
		logrus.Fatal("Ошибка миграции базы данных: ", err)
	}

	// Запускаем менеджер живой ленты организаторов
	websocket.StartManager()

	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Middleware для сбора метрик
	r.Use(middleware.PrometheusMiddleware())

	r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-Fingerprint"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Статическая директория для медиафайлов жалоб
	r.Static("/uploads", "./uploads")

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := r.Group("/api")
	routes.SetupRoutes(api, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("Сервер запущен на порту %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Ошибка запуска сервера: %s", err)
		}
	}()

	// Ожидаем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Получен сигнал завершения, закрываем соединения...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Ошибка при graceful shutdown: %s", err)
	}

	logrus.Info("Сервер корректно завершил работу")
}
