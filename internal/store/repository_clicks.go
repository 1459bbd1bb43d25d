package store

import (
	"context"
	"time"
)

func (s *Store) InsertClick(ctx context.Context, gameID, userID, username, itemName string, isBot bool, clickedAt time.Time) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO clicks (id, game_id, user_id, username, item_name, is_bot, clicked_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`,
		id, gameID, userID, username, itemName, isBot, clickedAt)
	return id, err
}

// ListRecentClicks returns the newest clicks first, optionally scoped to one
// game. Ties on clicked_at break on id, which is insertion-ordered.
func (s *Store) ListRecentClicks(ctx context.Context, gameID string, limit int) ([]Click, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, game_id, user_id, username, item_name, is_bot, clicked_at
		FROM clicks
		WHERE $1 = '' OR game_id = $1
		ORDER BY clicked_at DESC, id DESC
		LIMIT $2`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Click, 0, limit)
	for rows.Next() {
		var c Click
		if err := rows.Scan(&c.ID, &c.GameID, &c.UserID, &c.Username, &c.ItemName, &c.IsBot, &c.ClickedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
