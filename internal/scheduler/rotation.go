package scheduler

import (
	"context"
	"fmt"

	"lastclick/internal/game"

	"github.com/rs/zerolog/log"
)

// RotationSummary reports one rotation cron invocation.
type RotationSummary struct {
	Message string       `json:"message"`
	Created int          `json:"created"`
	Games   []GameDetail `json:"games,omitempty"`
}

// Rotate schedules a fresh batch of games over items that have no waiting or
// running game. Start times are aligned to the top of the hour so the lineup
// looks like a published schedule rather than a cron artifact.
func (t *Tick) Rotate(ctx context.Context) (*RotationSummary, error) {
	items, err := t.store.ItemsWithoutLiveGame(ctx, t.cfg.GamesPerRotation*3)
	if err != nil {
		return nil, fmt.Errorf("list rotation candidates: %w", err)
	}
	t.shuffleItems(items)
	if len(items) > t.cfg.GamesPerRotation {
		items = items[:t.cfg.GamesPerRotation]
	}

	// A zero rotation window means the operator runs this cron by hand;
	// those games get the standard full-length countdown instead.
	window := t.cfg.RotationDuration
	if window <= 0 {
		window = game.InitialDuration
	}
	start := t.clock.Now().Truncate(t.cfg.RotationDuration)
	durationMS := window.Milliseconds()
	sum := &RotationSummary{}
	for _, it := range items {
		endMS := start.UnixMilli() + durationMS
		id, err := t.store.CreateGame(ctx, it.ID, string(game.StatusActive), start, endMS, durationMS)
		if err != nil {
			log.Error().Err(err).Str("item_id", it.ID).Msg("rotation create failed")
			continue
		}
		sum.Created++
		sum.Games = append(sum.Games, GameDetail{GameID: id, ItemName: it.Name, NewStatus: string(game.StatusActive)})
	}
	sum.Message = fmt.Sprintf("rotated in %d games", sum.Created)
	log.Info().Int("created", sum.Created).Msg("rotation complete")
	return sum, nil
}

// ResetCredits tops every player balance back up to the free daily floor.
func (t *Tick) ResetCredits(ctx context.Context) (int64, error) {
	n, err := t.store.TopUpCredits(ctx, game.InitialCredits)
	if err != nil {
		return 0, fmt.Errorf("top up credits: %w", err)
	}
	log.Info().Int64("profiles", n).Msg("credits reset")
	return n, nil
}
