package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lostfound/registry/internal/auth"
	"github.com/lostfound/registry/internal/db"
	"github.com/lostfound/registry/internal/model"
)

// Tokens persists the single API token of each user.
type Tokens struct {
	DB *db.DB
}

// GetOrCreate returns the user's token, creating it if absent.
// Uses INSERT ... ON CONFLICT DO NOTHING + re-SELECT so concurrent callers
// for the same user all end up with the same key.
func (s *Tokens) GetOrCreate(ctx context.Context, userID int64) (string, error) {
	candidate, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}

	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(
		`INSERT INTO tokens (user_id, key) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`),
		userID, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var key string
	err = s.DB.QueryRowContext(ctx, s.DB.Rebind(
		`SELECT key FROM tokens WHERE user_id = ?`), userID,
	).Scan(&key)
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}
	return key, nil
}

// Rotate replaces the user's token with a fresh one and returns it.
func (s *Tokens) Rotate(ctx context.Context, userID int64) (string, error) {
	key, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}

	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(
		`INSERT INTO tokens (user_id, key) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET key = excluded.key, created_at = CURRENT_TIMESTAMP`),
		userID, key,
	)
	if err != nil {
		return "", fmt.Errorf("rotating token: %w", err)
	}
	return key, nil
}

// Lookup returns the user owning key, or nil if the key is unknown.
func (s *Tokens) Lookup(ctx context.Context, key string) (*model.User, error) {
	u := &model.User{}
	err := s.DB.QueryRowContext(ctx, s.DB.Rebind(
		`SELECT u.id, u.username, u.password_hash, u.is_staff, u.created_at
		 FROM tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.key = ?`), key,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up token: %w", err)
	}
	return u, nil
}
