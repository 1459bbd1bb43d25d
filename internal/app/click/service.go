// Package click owns the narrow write path every click goes through,
// human or synthetic: evaluate the state machine against the latest row,
// then apply one conditional update.
package click

import (
	"context"
	"errors"
	"time"

	"lastclick/internal/config"
	"lastclick/internal/events"
	"lastclick/internal/game"
	"lastclick/internal/ratelimit"
	"lastclick/internal/store"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Service struct {
	store   *store.Store
	pub     events.Publisher
	limiter ratelimit.Limiter
	clock   clockwork.Clock

	rateLimit  int
	rateWindow time.Duration
}

func NewService(st *store.Store, pub events.Publisher, limiter ratelimit.Limiter, clock clockwork.Clock, cfg config.ServerConfig) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		store:      st,
		pub:        pub,
		limiter:    limiter,
		clock:      clock,
		rateLimit:  cfg.ClickRateLimit,
		rateWindow: time.Duration(cfg.ClickRateWindowMS) * time.Millisecond,
	}
}

type Result struct {
	NewEndTimeMS int64 `json:"new_end_time,omitempty"`
	TimerReset   bool  `json:"timer_reset"`
}

// UserClick spends a credit and records a real click. The credit refunds if
// the game stopped running between the read and the conditional write.
func (s *Service) UserClick(ctx context.Context, gameID, userID, username string) (*Result, error) {
	if gameID == "" || userID == "" || username == "" {
		return nil, ErrInvalidRequest
	}
	if s.limiter != nil {
		res, err := s.limiter.Allow(ctx, "click:"+userID, s.rateLimit, s.rateWindow)
		if err != nil {
			// A broken limiter throttles no one; clicking must not go down
			// with it.
			log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !res.Allowed {
			return nil, ErrRateLimited
		}
		// The burst window above caps sustained volume; the cooldown caps
		// instantaneous double-clicks on a single game.
		cool, err := s.limiter.Allow(ctx, "cooldown:"+userID+":"+gameID, 1, game.ClickCooldown)
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !cool.Allowed {
			return nil, ErrRateLimited
		}
	}

	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	now := s.clock.Now()
	outcome, err := game.ApplyClick(snapshotOf(g), game.Clicker{UserID: userID, Username: username}, now)
	if err != nil {
		return nil, ErrGameNotRunning
	}

	spent, err := s.store.SpendCredits(ctx, userID, game.CreditsPerClick)
	if err != nil {
		return nil, err
	}
	if !spent {
		return nil, ErrInsufficientCredits
	}

	applied, err := s.apply(ctx, g, outcome, now, false)
	if err != nil || !applied {
		if refundErr := s.store.RefundCredits(ctx, userID, game.CreditsPerClick); refundErr != nil {
			log.Error().Err(refundErr).Str("user_id", userID).Msg("credit refund failed")
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrGameNotRunning
	}

	res := &Result{TimerReset: outcome.ResetTimer}
	if outcome.ResetTimer {
		res.NewEndTimeMS = outcome.NewEndTimeMS
	}
	return res, nil
}

// BotClick records a synthetic click through the same path, minus credits.
// Both the scheduler's bot battle and the viewer mirror land here.
func (s *Service) BotClick(ctx context.Context, gameID, username string) error {
	if gameID == "" || username == "" {
		return ErrInvalidRequest
	}
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrGameNotFound
		}
		return err
	}

	now := s.clock.Now()
	outcome, err := game.ApplyClick(snapshotOf(g), game.Clicker{Username: username}, now)
	if err != nil {
		return ErrGameNotRunning
	}

	applied, err := s.apply(ctx, g, outcome, now, true)
	if err != nil {
		return err
	}
	if !applied {
		return ErrGameNotRunning
	}
	return nil
}

// apply executes the outcome against the store and fans out events. Returns
// false when the row stopped matching the running precondition.
func (s *Service) apply(ctx context.Context, g *store.Game, o game.ClickOutcome, now time.Time, isBot bool) (bool, error) {
	applied, err := s.store.ApplyClick(ctx, g.ID, store.ClickUpdate{
		Username:     o.Username,
		UserID:       o.UserID,
		ResetTimer:   o.ResetTimer,
		NewEndTimeMS: o.NewEndTimeMS,
		NewStatus:    string(o.NewStatus),
		StartBattle:  o.StartBattle,
		Now:          now,
	})
	if err != nil || !applied {
		return applied, err
	}

	clickID, err := s.store.InsertClick(ctx, g.ID, o.UserID, o.Username, g.ItemName, isBot, now)
	if err != nil {
		// The click applied; a missing feed row is not worth failing the
		// request over.
		log.Warn().Err(err).Str("game_id", g.ID).Msg("click feed insert failed")
	} else {
		s.pub.PublishClick(store.Click{
			ID:        clickID,
			GameID:    g.ID,
			UserID:    nilIfEmpty(o.UserID),
			Username:  o.Username,
			ItemName:  g.ItemName,
			IsBot:     isBot,
			ClickedAt: now,
		})
	}

	update := events.GameUpdate{
		GameID:            g.ID,
		Status:            string(g.Status),
		EndTimeMS:         g.EndTimeMS,
		TotalClicks:       g.TotalClicks + 1,
		LastClickUsername: o.Username,
		LastClickUserID:   o.UserID,
		UpdatedAt:         now,
	}
	if o.ResetTimer {
		update.Status = string(o.NewStatus)
		update.EndTimeMS = o.NewEndTimeMS
	}
	if g.BattleStartTime != nil {
		update.BattleStartTime = g.BattleStartTime
	} else if o.StartBattle {
		start := now
		update.BattleStartTime = &start
	}
	s.pub.PublishGameUpdate(update)
	return true, nil
}

func snapshotOf(g *store.Game) game.Snapshot {
	return game.Snapshot{
		Status:        game.Status(g.Status),
		EndTimeMS:     g.EndTimeMS,
		BattleStarted: g.BattleStartTime != nil,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
