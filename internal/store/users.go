package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lostfound/registry/internal/db"
	"github.com/lostfound/registry/internal/model"
)

// ErrUsernameTaken is returned when creating a user whose username exists.
var ErrUsernameTaken = errors.New("username already taken")

// Users persists user accounts.
type Users struct {
	DB *db.DB
}

const userColumns = `id, username, password_hash, is_staff, created_at`

// Create creates a new user.
func (s *Users) Create(ctx context.Context, username, passwordHash string, isStaff bool) (*model.User, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, s.DB.Rebind(
		`INSERT INTO users (username, password_hash, is_staff) VALUES (?, ?, ?) RETURNING id`),
		username, passwordHash, isStaff,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns a user by ID, or nil if there is none.
func (s *Users) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, s.DB.Rebind(
		`SELECT `+userColumns+` FROM users WHERE id = ?`), id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetByUsername returns a user by username, or nil if there is none.
func (s *Users) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, s.DB.Rebind(
		`SELECT `+userColumns+` FROM users WHERE username = ?`), username,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// SetStaff grants or revokes a user's staff flag.
func (s *Users) SetStaff(ctx context.Context, id int64, isStaff bool) error {
	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(
		`UPDATE users SET is_staff = ? WHERE id = ?`), isStaff, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireAffected(result, "user")
}

// UpdatePassword replaces a user's password hash.
func (s *Users) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(
		`UPDATE users SET password_hash = ? WHERE id = ?`), passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return requireAffected(result, "user")
}

// Delete removes a user. Their token and items are removed with them.
func (s *Users) Delete(ctx context.Context, id int64) error {
	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireAffected(result, "user")
}

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
