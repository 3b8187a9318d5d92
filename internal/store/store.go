// Package store implements persistence for users, tokens and items on top
// of database/sql.
package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by updates that matched no row.
var ErrNotFound = errors.New("not found")

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
