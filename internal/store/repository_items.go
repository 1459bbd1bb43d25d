package store

import "context"

func (s *Store) CreateItem(ctx context.Context, name, imageURL string, valueCents int64) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO items (id, name, image_url, value_cents) VALUES ($1, $2, $3, $4)`,
		id, name, imageURL, valueCents)
	return id, err
}

func (s *Store) ListItems(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, name, image_url, value_cents, created_at
		FROM items ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.ImageURL, &it.ValueCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
