package common

import (
	"errors"

	"github.com/lib/pq"
)

// ErrAlreadyExists общая ошибка нарушения уникальности.
var ErrAlreadyExists = errors.New("entity already exists")

// pgUniqueViolation код ошибки PostgreSQL для нарушения уникальности.
const pgUniqueViolation = "23505"

// IsUniqueViolation проверяет, что ошибка вызвана нарушением уникального ограничения.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
