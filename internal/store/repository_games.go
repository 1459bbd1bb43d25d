package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const gameColumns = `g.id, g.item_id, i.name, g.status, g.start_time, g.end_time,
	g.initial_duration_ms, g.total_clicks, g.last_click_username, g.last_click_user_id,
	g.last_click_at, g.battle_start_time, g.winner_id, g.created_at, g.ended_at`

func scanGame(row pgx.Row) (*Game, error) {
	var g Game
	err := row.Scan(&g.ID, &g.ItemID, &g.ItemName, &g.Status, &g.StartTime, &g.EndTimeMS,
		&g.InitialDurationMS, &g.TotalClicks, &g.LastClickUsername, &g.LastClickUserID,
		&g.LastClickAt, &g.BattleStartTime, &g.WinnerID, &g.CreatedAt, &g.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateGame(ctx context.Context, itemID, status string, startTime time.Time, endTimeMS, initialDurationMS int64) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO games (id, item_id, status, start_time, end_time, initial_duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, itemID, status, startTime, endTimeMS, initialDurationMS)
	return id, err
}

func (s *Store) GetGame(ctx context.Context, id string) (*Game, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+gameColumns+`
		FROM games g JOIN items i ON i.id = g.item_id WHERE g.id = $1`, id)
	return scanGame(row)
}

// ListGamesByStatus returns games in any of the given states, soonest-ending
// first. An empty status list means every game.
func (s *Store) ListGamesByStatus(ctx context.Context, statuses []string, limit, offset int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+gameColumns+`
		FROM games g JOIN items i ON i.id = g.item_id
		WHERE cardinality($1::text[]) = 0 OR g.status = ANY($1)
		ORDER BY g.end_time ASC
		LIMIT $2 OFFSET $3`, statuses, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Game, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// ListRunningGames returns every game still accepting clicks.
func (s *Store) ListRunningGames(ctx context.Context) ([]Game, error) {
	return s.ListGamesByStatus(ctx, []string{"active", "final_phase"}, 1000, 0)
}

// ActivateDueGames flips every waiting game whose start time has passed to
// active in one statement. Re-running it is a no-op for already-active rows,
// so overlapping ticks are safe.
func (s *Store) ActivateDueGames(ctx context.Context, now time.Time) ([]ActivatedGame, error) {
	rows, err := s.Pool.Query(ctx, `UPDATE games g SET status = 'active'
		FROM items i
		WHERE i.id = g.item_id AND g.status = 'waiting' AND g.start_time <= $1
		RETURNING g.id, i.name, g.start_time`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ActivatedGame
	for rows.Next() {
		var a ActivatedGame
		if err := rows.Scan(&a.ID, &a.ItemName, &a.StartTime); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplyClick executes a click's conditional update against the latest row.
// Returns false when the game stopped running since the caller read it.
func (s *Store) ApplyClick(ctx context.Context, gameID string, u ClickUpdate) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE games SET
		total_clicks = total_clicks + 1,
		last_click_username = $2,
		last_click_user_id = NULLIF($3, ''),
		last_click_at = $4,
		end_time = CASE WHEN $5 THEN $6 ELSE end_time END,
		status = CASE WHEN $5 THEN $7 ELSE status END,
		battle_start_time = CASE WHEN $8 AND battle_start_time IS NULL THEN $4 ELSE battle_start_time END
		WHERE id = $1 AND status IN ('active', 'final_phase')`,
		gameID, u.Username, u.UserID, u.Now, u.ResetTimer, u.NewEndTimeMS, u.NewStatus, u.StartBattle)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireGame ends one game whose countdown has run out. The winner column is
// filled from the last real click, if any, in the same atomic write that
// flips the status, so an ended row is never half-ended. Already-ended rows
// are untouched.
func (s *Store) ExpireGame(ctx context.Context, gameID string, now time.Time) (winnerID *string, applied bool, err error) {
	row := s.Pool.QueryRow(ctx, `UPDATE games SET
		status = 'ended',
		ended_at = $2,
		winner_id = last_click_user_id
		WHERE id = $1 AND status IN ('active', 'final_phase') AND end_time <= $3
		RETURNING winner_id`,
		gameID, now, now.UnixMilli())
	var winner *string
	if err := row.Scan(&winner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return winner, true, nil
}

// ItemsWithoutLiveGame returns prize items with no waiting or running game,
// candidates for the next rotation.
func (s *Store) ItemsWithoutLiveGame(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, name, image_url, value_cents, created_at
		FROM items i
		WHERE NOT EXISTS (
			SELECT 1 FROM games g
			WHERE g.item_id = i.id AND g.status IN ('waiting', 'active', 'final_phase')
		)
		ORDER BY created_at ASC
		LIMIT $1`, limit)
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
