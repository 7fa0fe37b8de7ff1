package repository

import (
	"database/sql"
	"fmt"
)

// requireAffected возвращает notFound, если запрос не затронул ни одной строки.
func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
