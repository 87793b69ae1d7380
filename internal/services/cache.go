package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// DriverCache кэширует результат поиска водителя по номеру машины.
// Поиск выполняется при каждой подаче жалобы, а реестр водителей
// меняется редко, поэтому короткий TTL безопасен.
type DriverCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewDriverCache создает кэш поверх глобального Redis клиента
func NewDriverCache() *DriverCache {
	// TTL кэша в секундах, по умолчанию 5 минут
	ttl := 300
	if val, err := strconv.Atoi(os.Getenv("DRIVER_CACHE_DURATION")); err == nil && val > 0 {
		ttl = val
	}

	return &DriverCache{
		redisClient: RedisClient(),
		ttl:         time.Duration(ttl) * time.Second,
	}
}

func driverCacheKey(vehicleNumber string) string {
	return fmt.Sprintf("driver_by_vehicle:%s", vehicleNumber)
}

// GetDriverID возвращает закэшированный id водителя для номера машины
func (c *DriverCache) GetDriverID(ctx context.Context, vehicleNumber string) (uint, bool) {
	if c.redisClient == nil {
		return 0, false
	}

	val, err := c.redisClient.Get(ctx, driverCacheKey(vehicleNumber)).Result()
	if err == redis.Nil {
		return 0, false
	} else if err != nil {
		logrus.Warnf("Ошибка при чтении кэша водителей: %v", err)
		return 0, false
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}

	return uint(id), true
}

// SetDriverID сохраняет id водителя для номера машины
func (c *DriverCache) SetDriverID(ctx context.Context, vehicleNumber string, driverID uint) {
	if c.redisClient == nil {
		return
	}

	if err := c.redisClient.Set(ctx, driverCacheKey(vehicleNumber), strconv.FormatUint(uint64(driverID), 10), c.ttl).Err(); err != nil {
		logrus.Warnf("Ошибка при записи кэша водителей: %v", err)
	}
}

// Invalidate сбрасывает кэш для номера машины. Вызывается при любом
// изменении реестра водителей.
func (c *DriverCache) Invalidate(ctx context.Context, vehicleNumber string) {
	if c.redisClient == nil || vehicleNumber == "" {
		return
	}

	if err := c.redisClient.Del(ctx, driverCacheKey(vehicleNumber)).Err(); err != nil {
		logrus.Warnf("Ошибка при сбросе кэша водителей: %v", err)
	}
}
