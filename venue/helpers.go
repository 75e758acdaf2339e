package venue

import (
	"github.com/google/uuid"
)

// CreateUid - возвращает строку - уникальный клиентский идентификатор поручения
func CreateUid() string {
	return uuid.NewString()
}
