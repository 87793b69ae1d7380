package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Ошибки ядра, которые обработчики переводят в структурированные
// HTTP-ответы. Все прочие ошибки считаются инфраструктурными
// (недоступность хранилища) и отдаются как 500.
var (
	ErrUnassignedDriver = errors.New("no driver assigned to report")
	ErrMissingContact   = errors.New("driver has no phone contact")
)

// ValidationError перечисляет все нарушения валидации разом,
// а не только первое найденное поле.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// RateLimitError сообщает, какое именно окно лимита нарушено
type RateLimitError struct {
	Window  string
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// NotFoundError возвращается, когда жалоба или водитель не найдены по id
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
