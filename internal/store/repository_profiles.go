package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateProfile(ctx context.Context, username string, credits int64) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx, `INSERT INTO profiles (id, username, credits) VALUES ($1, $2, $3)`,
		id, username, credits)
	return id, err
}

func (s *Store) GetProfile(ctx context.Context, id string) (*Profile, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, username, credits, total_clicks, created_at
		FROM profiles WHERE id = $1`, id)
	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.Credits, &p.TotalClicks, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SpendCredits deducts the click cost and bumps the user's click counter in
// one conditional write. Returns false when the balance is short.
func (s *Store) SpendCredits(ctx context.Context, userID string, amount int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE profiles
		SET credits = credits - $2, total_clicks = total_clicks + 1
		WHERE id = $1 AND credits >= $2`, userID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RefundCredits undoes a deduction when the click could not be recorded.
func (s *Store) RefundCredits(ctx context.Context, userID string, amount int64) error {
	_, err := s.Pool.Exec(ctx, `UPDATE profiles
		SET credits = credits + $2, total_clicks = total_clicks - 1
		WHERE id = $1`, userID, amount)
	return err
}

// TopUpCredits raises every balance below the floor back up to it. The daily
// credit-reset cron calls this once per invocation; rerunning it is a no-op.
func (s *Store) TopUpCredits(ctx context.Context, floor int64) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE profiles SET credits = $1 WHERE credits < $1`, floor)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
