package services

import (
	"github.com/go-redis/redis/v8"
)

var globalRedisClient *redis.Client

// SetRedisClient устанавливает глобальный Redis клиент для сервисов.
// Redis опционален: без него кэш и счетчик номеров работают в
// деградированном режиме.
func SetRedisClient(client *redis.Client) {
	globalRedisClient = client
}

// RedisClient возвращает глобальный Redis клиент (может быть nil)
func RedisClient() *redis.Client {
	return globalRedisClient
}
