package utils

import (
	"github.com/google/uuid"
)

// GenerateFingerprint выдает новый клиентский fingerprint. Клиент обязан
// сохранить его локально и присылать при каждой подаче жалобы: потеря
// токена обнуляет историю рейт-лимита, это задокументированная слабость
// анти-спам эвристики.
func GenerateFingerprint() string {
	return uuid.New().String()
}
