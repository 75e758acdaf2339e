package venue

import (
	"errors"
	"fmt"
)

// ErrEmptyBook - Снимок стакана с пустой стороной непригоден для расчета котировок
var ErrEmptyBook = errors.New("order book has no bids or asks")

// ErrOrderFilled - Биржа сообщила, что отменяемое поручение уже исполнено.
// Это событие исполнения, а не ошибка отмены
var ErrOrderFilled = errors.New("order already filled")

// ConfigError - Фатальная ошибка конфигурации, восстановление невозможно
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %v: %v", e.Field, e.Reason)
}

// SnapshotError - Ошибка чтения стакана с биржи, восстанавливаемая в рамках одного цикла
type SnapshotError struct {
	Venue string
	Err   error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("%v order book fetch: %v", e.Venue, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

// OrderRejectedError - Биржа отклонила выставление или отмену поручения
type OrderRejectedError struct {
	Venue  string
	Reason string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("%v rejected order: %v", e.Venue, e.Reason)
}

// HedgeError - Хеджирующее поручение не исполнено после исчерпания всех попыток.
// После этой ошибки выставление новых котировок останавливается
type HedgeError struct {
	Side     Side
	Size     float64
	Attempts int
	Err      error
}

func (e *HedgeError) Error() string {
	return fmt.Sprintf("hedge %v %v failed after %v attempts: %v", e.Side, e.Size, e.Attempts, e.Err)
}

func (e *HedgeError) Unwrap() error { return e.Err }

// RiskError - Выставление поручения заблокировано риск-лимитом
type RiskError struct {
	Limit  string
	Reason string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk limit %v: %v", e.Limit, e.Reason)
}
