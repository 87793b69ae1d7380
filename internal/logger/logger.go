package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Setup настраивает logrus: вывод одновременно в stdout и в файл
// с ротацией
func Setup() {
	rotator := &lumberjack.Logger{
		Filename:   "./logs/rally-watchdog.log",
		MaxSize:    10, // мегабайт
		MaxBackups: 7,
		MaxAge:     7, // дней
		Compress:   true,
	}

	logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))

	if os.Getenv("LOG_FORMAT") == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
