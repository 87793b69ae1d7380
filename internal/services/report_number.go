package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GenerateReportNumber выдает человекочитаемый номер жалобы вида
// RW-20240815-0007. Счетчик ведется в Redis по ключу на календарный день.
// Без Redis уникальность обеспечивается случайным суффиксом — номер
// остается непрозрачной уникальной строкой, просто без сквозной нумерации.
func GenerateReportNumber(ctx context.Context) string {
	day := time.Now().UTC().Format("20060102")

	if rdb := RedisClient(); rdb != nil {
		key := fmt.Sprintf("report_number_seq:%s", day)
		seq, err := rdb.Incr(ctx, key).Result()
		if err == nil {
			// Ключ прошлого дня больше не нужен
			rdb.Expire(ctx, key, 48*time.Hour)
			return fmt.Sprintf("RW-%s-%04d", day, seq)
		}
		logrus.Warnf("Ошибка счетчика номеров жалоб в Redis: %v", err)
	}

	return fmt.Sprintf("RW-%s-%s", day, uuid.New().String()[:8])
}
