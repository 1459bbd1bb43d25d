// Package scheduler reconciles game state on a fixed cadence: activate due
// games, keep final phases contested, expire run-out timers. Every step is
// idempotent and per-row atomic, so overlapping or repeated invocations are
// safe and a partial failure is finished by the next run.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	appclick "lastclick/internal/app/click"
	"lastclick/internal/botsim"
	"lastclick/internal/config"
	"lastclick/internal/events"
	"lastclick/internal/game"
	"lastclick/internal/store"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sweeper is any TTL store that wants periodic garbage collection on the
// tick cadence (the rate limiter, today).
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type Tick struct {
	store   *store.Store
	clicks  *appclick.Service
	pub     events.Publisher
	clock   clockwork.Clock
	cfg     config.SchedulerConfig
	sweeper Sweeper

	// rnd is shared between Run and Rotate, which may overlap when the
	// internal loop and the cron endpoints fire together. math/rand.Rand
	// is not goroutine-safe, so every draw goes through rndMu.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func New(st *store.Store, clicks *appclick.Service, pub events.Publisher, clock clockwork.Clock, cfg config.SchedulerConfig) *Tick {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Tick{
		store:  st,
		clicks: clicks,
		pub:    pub,
		clock:  clock,
		cfg:    cfg,
		rnd:    rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// WithSweeper attaches a TTL store to garbage-collect once per run.
func (t *Tick) WithSweeper(s Sweeper) *Tick {
	t.sweeper = s
	return t
}

func (t *Tick) rollChance() float64 {
	t.rndMu.Lock()
	defer t.rndMu.Unlock()
	return t.rnd.Float64()
}

func (t *Tick) rollIntn(n int) int {
	t.rndMu.Lock()
	defer t.rndMu.Unlock()
	return t.rnd.Intn(n)
}

func (t *Tick) rollUsername() string {
	t.rndMu.Lock()
	defer t.rndMu.Unlock()
	return botsim.RandomUsername(t.rnd)
}

func (t *Tick) shuffleItems(items []store.Item) {
	t.rndMu.Lock()
	defer t.rndMu.Unlock()
	t.rnd.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}

// GameDetail reports what one run did to one game.
type GameDetail struct {
	GameID    string `json:"game_id"`
	ItemName  string `json:"item_name"`
	Clicks    int    `json:"clicks,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
	Winner    string `json:"winner,omitempty"`
}

type Summary struct {
	Message   string       `json:"message"`
	Activated int          `json:"activated"`
	Processed int          `json:"processed"`
	BotClicks int          `json:"bot_clicks"`
	Ended     int          `json:"ended"`
	Games     []GameDetail `json:"games,omitempty"`
}

// Run performs one reconciliation pass. Store errors on individual rows are
// logged and skipped; only a failure to read the work set aborts the run.
func (t *Tick) Run(ctx context.Context) (*Summary, error) {
	now := t.clock.Now()
	sum := &Summary{}

	activated, err := t.store.ActivateDueGames(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("activate due games: %w", err)
	}
	sum.Activated = len(activated)
	for _, a := range activated {
		sum.Games = append(sum.Games, GameDetail{GameID: a.ID, ItemName: a.ItemName, NewStatus: string(game.StatusActive)})
		t.pub.PublishGameUpdate(events.GameUpdate{GameID: a.ID, Status: string(game.StatusActive), UpdatedAt: now})
	}
	if len(activated) > 0 {
		log.Info().Int("count", len(activated)).Msg("activated games")
	}

	running, err := t.store.ListRunningGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list running games: %w", err)
	}

	for i := range running {
		g := &running[i]
		detail, ok := t.battle(ctx, g, now)
		if ok {
			sum.Processed++
			sum.BotClicks += detail.Clicks
			sum.Games = append(sum.Games, detail)
		}
	}

	for i := range running {
		g := &running[i]
		// The row may have been extended above or by a concurrent click;
		// ExpireGame re-checks end_time against the current row, so a stale
		// read here can never end a live game.
		if game.TimeLeft(g.EndTimeMS, now) > 0 {
			continue
		}
		winnerID, applied, err := t.store.ExpireGame(ctx, g.ID, now)
		if err != nil {
			log.Error().Err(err).Str("game_id", g.ID).Msg("expire failed, will retry next tick")
			continue
		}
		if !applied {
			continue
		}
		sum.Ended++
		detail := GameDetail{GameID: g.ID, ItemName: g.ItemName, NewStatus: string(game.StatusEnded)}
		update := events.GameUpdate{GameID: g.ID, Status: string(game.StatusEnded), EndTimeMS: g.EndTimeMS, UpdatedAt: now}
		if winnerID != nil {
			detail.Winner = *winnerID
			update.WinnerID = *winnerID
		}
		sum.Games = append(sum.Games, detail)
		t.pub.PublishGameUpdate(update)
		log.Info().Str("game_id", g.ID).Str("item", g.ItemName).Bool("has_winner", winnerID != nil).Msg("game ended")
	}

	if t.sweeper != nil {
		if n, err := t.sweeper.Sweep(ctx); err != nil {
			log.Warn().Err(err).Msg("ttl sweep failed")
		} else if n > 0 {
			log.Debug().Int64("expired", n).Msg("swept ttl entries")
		}
	}

	sum.Message = fmt.Sprintf("activated %d, processed %d with %d bot clicks, ended %d",
		sum.Activated, sum.Processed, sum.BotClicks, sum.Ended)
	return sum, nil
}

// battle simulates contention for one game inside the final-phase window.
// Contention is probabilistic and bounded: once the game's battle window has
// elapsed and no real player holds the lead, the timer is left to fall.
func (t *Tick) battle(ctx context.Context, g *store.Game, now time.Time) (GameDetail, bool) {
	left := game.TimeLeft(g.EndTimeMS, now)
	if left <= 0 || left > game.FinalPhaseThreshold {
		return GameDetail{}, false
	}
	if t.rollChance() > t.cfg.ClickChance {
		return GameDetail{}, false
	}

	hasRealPlayer := g.LastClickUserID != nil
	if t.battleOver(g, now) && !hasRealPlayer {
		return GameDetail{}, false
	}

	spread := t.cfg.MaxClicksPerGame - t.cfg.MinClicksPerGame
	count := t.cfg.MinClicksPerGame
	if spread > 0 {
		count += t.rollIntn(spread + 1)
	}

	detail := GameDetail{GameID: g.ID, ItemName: g.ItemName}
	for i := 0; i < count; i++ {
		username := t.rollUsername()
		if err := t.clicks.BotClick(ctx, g.ID, username); err != nil {
			log.Warn().Err(err).Str("game_id", g.ID).Msg("bot battle click failed")
			break
		}
		detail.Clicks++
	}
	if detail.Clicks > 0 && g.Status == string(game.StatusActive) {
		detail.NewStatus = string(game.StatusFinalPhase)
	}
	return detail, detail.Clicks > 0
}

func (t *Tick) battleOver(g *store.Game, now time.Time) bool {
	if g.BattleStartTime == nil {
		return false
	}
	duration := botsim.BattleDuration(g.ID, t.cfg.BattleMinDuration, t.cfg.BattleMaxDuration)
	return now.Sub(*g.BattleStartTime) >= duration
}

// StartLoop drives Run on the tick interval for deployments without an
// external cron. Stops when the context is cancelled.
func (t *Tick) StartLoop(ctx context.Context) {
	go func() {
		ticker := t.clock.NewTicker(t.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if _, err := t.Run(ctx); err != nil {
					log.Error().Err(err).Msg("scheduler tick failed")
				}
			}
		}
	}()
}
