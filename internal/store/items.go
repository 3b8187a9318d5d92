package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lostfound/registry/internal/db"
	"github.com/lostfound/registry/internal/model"
)

// Items persists found items.
type Items struct {
	DB *db.DB
}

const itemSelect = `SELECT i.id, i.uuid, i.user_id, u.username, i.name, i.category, i.description,
        i.date_found, i.image, i.created_at, i.claimed
 FROM items i JOIN users u ON u.id = i.user_id`

// Create inserts item and sets its ID. UUID, UserID and CreatedAt must
// already be populated.
func (s *Items) Create(ctx context.Context, item *model.Item) error {
	var image sql.NullString
	if item.Image != "" {
		image = sql.NullString{String: item.Image, Valid: true}
	}

	err := s.DB.QueryRowContext(ctx, s.DB.Rebind(
		`INSERT INTO items (uuid, user_id, name, category, description, date_found, image, created_at, claimed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		item.UUID.String(), item.UserID, item.Name, item.Category, item.Description,
		item.DateFound, image, item.CreatedAt, item.Claimed,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}
	return nil
}

// Get returns an item by ID, or nil if there is none.
func (s *Items) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := scanItem(s.DB.QueryRowContext(ctx, s.DB.Rebind(itemSelect+` WHERE i.id = ?`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// List returns up to limit items, newest first, skipping offset.
func (s *Items) List(ctx context.Context, limit, offset int) ([]model.Item, error) {
	rows, err := s.DB.QueryContext(ctx, s.DB.Rebind(
		itemSelect+` ORDER BY i.created_at DESC, i.id DESC LIMIT ? OFFSET ?`),
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Count returns the number of stored items.
func (s *Items) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// SetClaimed updates only the claimed flag of an item.
func (s *Items) SetClaimed(ctx context.Context, id int64, claimed bool) error {
	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(
		`UPDATE items SET claimed = ? WHERE id = ?`), claimed, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result, "item")
}

// ImageKeys returns the photo keys of every item owned by userID.
func (s *Items) ImageKeys(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, s.DB.Rebind(
		`SELECT image FROM items WHERE user_id = ? AND image IS NOT NULL`), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning item image: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete removes an item.
func (s *Items) Delete(ctx context.Context, id int64) error {
	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(result, "item")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var image sql.NullString
	err := row.Scan(&item.ID, &item.UUID, &item.UserID, &item.UserName, &item.Name, &item.Category,
		&item.Description, &item.DateFound, &image, &item.CreatedAt, &item.Claimed)
	if err != nil {
		return nil, err
	}
	item.Image = image.String
	return item, nil
}
