package public

import (
	"context"
	"errors"
	"time"

	"lastclick/internal/game"
	"lastclick/internal/store"

	"github.com/jonboulle/clockwork"
)

const (
	defaultClicksLimit = 20
	maxClicksLimit     = 50
)

type Service struct {
	store *store.Store
	clock clockwork.Clock
}

func NewService(st *store.Store, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: st, clock: clock}
}

// Games lists games for the lobby. The phase field is derived the same way
// for every reader, so a lobby and a game page can never disagree.
func (s *Service) Games(ctx context.Context, statuses []string, limit, offset int) (*GamesResponse, error) {
	items, err := s.store.ListGamesByStatus(ctx, statuses, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]GameItem, 0, len(items))
	for i := range items {
		out = append(out, s.gameItem(&items[i], now))
	}
	return &GamesResponse{Items: out}, nil
}

func (s *Service) Game(ctx context.Context, id string) (*GameItem, error) {
	if id == "" {
		return nil, ErrInvalidRequest
	}
	g, err := s.store.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	item := s.gameItem(g, s.clock.Now())
	return &item, nil
}

func (s *Service) RecentClicks(ctx context.Context, gameID string, limit int) (*ClicksResponse, error) {
	if limit <= 0 {
		limit = defaultClicksLimit
	}
	if limit > maxClicksLimit {
		limit = maxClicksLimit
	}
	clicks, err := s.store.ListRecentClicks(ctx, gameID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ClickItem, 0, len(clicks))
	for _, c := range clicks {
		out = append(out, ClickItem{
			ID:        c.ID,
			GameID:    c.GameID,
			Username:  c.Username,
			ItemName:  c.ItemName,
			IsBot:     c.IsBot,
			Timestamp: c.ClickedAt.UnixMilli(),
		})
	}
	return &ClicksResponse{Clicks: out, Count: len(out)}, nil
}

func (s *Service) gameItem(g *store.Game, now time.Time) GameItem {
	item := GameItem{
		GameID:      g.ID,
		ItemName:    g.ItemName,
		Status:      g.Status,
		Phase:       string(game.EffectivePhase(game.Status(g.Status), g.EndTimeMS, now)),
		EndTimeMS:   g.EndTimeMS,
		TimeLeftMS:  int64(game.TimeLeft(g.EndTimeMS, now) / time.Millisecond),
		TotalClicks: g.TotalClicks,
		StartTime:   g.StartTime,
		EndedAt:     g.EndedAt,

		BattleStartTime: g.BattleStartTime,
	}
	if g.LastClickUsername != nil {
		item.LastClickUsername = *g.LastClickUsername
		item.LastClickIsBot = g.LastClickUserID == nil
	}
	if g.LastClickUserID != nil {
		item.LastClickUserID = *g.LastClickUserID
	}
	if g.WinnerID != nil {
		item.WinnerID = *g.WinnerID
	}
	return item
}
