package botsim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lastclick/internal/game"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ClickSink is the one side-effect channel the mirror has: the same narrow
// bot-click path a real click goes through on the server.
type ClickSink interface {
	RecordBotClick(ctx context.Context, gameID, username string) error
}

// Snapshot is the freshest authoritative view of the mirrored game.
type Snapshot struct {
	Status            game.Status
	EndTimeMS         int64
	LastClickUsername string
	LastClickUserID   string
	BattleStartTime   *time.Time
	UpdatedAt         time.Time // authoritative timestamp, not client wall-clock
}

type Config struct {
	TickInterval      time.Duration
	BattleMinDuration time.Duration
	BattleMaxDuration time.Duration
}

func (c *Config) defaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.BattleMinDuration <= 0 {
		c.BattleMinDuration = 30 * time.Minute
	}
	if c.BattleMaxDuration <= c.BattleMinDuration {
		c.BattleMaxDuration = 119 * time.Minute
	}
}

// Mirror keeps one viewed game lively between authoritative updates. It is
// restartable by construction: every decision derives from the current time
// bucket, so a remounted mirror converges with one that never stopped.
type Mirror struct {
	gameID      string
	sink        ClickSink
	clock       clockwork.Clock
	cfg         Config
	personality float64

	mu          sync.Mutex
	snap        Snapshot
	localEndMS  int64 // optimistic countdown, overwritten by fresher authoritative state
	lastClickAt time.Time
}

func NewMirror(gameID string, sink ClickSink, clock clockwork.Clock, cfg Config) *Mirror {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg.defaults()
	return &Mirror{
		gameID:      gameID,
		sink:        sink,
		clock:       clock,
		cfg:         cfg,
		personality: Personality(gameID),
	}
}

// Observe feeds an authoritative update into the mirror. Authoritative state
// always wins over the optimistic local countdown; stale pushes (older
// UpdatedAt) are dropped.
func (m *Mirror) Observe(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.UpdatedAt.Before(m.snap.UpdatedAt) {
		return
	}
	m.snap = s
	m.localEndMS = s.EndTimeMS
}

// Run drives the mirror until the context is cancelled (view dismissed).
func (m *Mirror) Run(ctx context.Context) {
	// Fast first decision after mount, matching a viewer who just arrived.
	m.mu.Lock()
	m.lastClickAt = m.clock.Now().Add(-50 * time.Second)
	m.mu.Unlock()

	ticker := m.clock.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Step(ctx, m.clock.Now())
		}
	}
}

// Step runs one decision cycle. Exposed so the loop stays trivial and the
// behaviour is testable against a fake clock.
func (m *Mirror) Step(ctx context.Context, now time.Time) {
	m.mu.Lock()
	click := m.decide(now)
	m.mu.Unlock()
	if click == nil {
		return
	}

	if click.resetTimer {
		m.mu.Lock()
		m.localEndMS = now.Add(game.FinalPhaseReset).UnixMilli()
		m.snap.LastClickUsername = click.username
		m.snap.LastClickUserID = ""
		m.mu.Unlock()
	}

	if err := m.sink.RecordBotClick(ctx, m.gameID, click.username); err != nil {
		log.Warn().Err(err).Str("game_id", m.gameID).Msg("bot click sync failed")
	}
}

type syntheticClick struct {
	username   string
	resetTimer bool
}

// decide ports the shared viewer behaviour: cadence by remaining-time band,
// bounded battle contention, and sniping when a real player holds the lead.
// Callers hold m.mu.
func (m *Mirror) decide(now time.Time) *syntheticClick {
	nowMS := now.UnixMilli()
	timeLeft := game.TimeLeft(m.localEndMS, now)
	if timeLeft <= 0 || !m.snap.Status.Running() {
		return nil
	}

	inFinalPhase := m.snap.Status == game.StatusFinalPhase || timeLeft <= game.FinalPhaseThreshold
	hasRealPlayer := m.snap.LastClickUserID != ""

	// Snipe behaviour: a leading real player gets contested with a natural
	// looking delay instead of instantly.
	if hasRealPlayer && inFinalPhase {
		snipeThreshold := 10*time.Second + time.Duration(SeedAt(m.gameID+"-threshold", nowMS, 5000)%40000)*time.Millisecond
		switch {
		case timeLeft <= 8*time.Second:
			// Timer critical, contest immediately.
			username := DeterministicUsername(fmt.Sprintf("%s-%d-snipe", m.gameID, nowMS/1000))
			m.lastClickAt = now
			return &syntheticClick{username: username, resetTimer: true}
		case timeLeft <= snipeThreshold:
			if SeedAt(m.gameID+"-snipe", nowMS, 3000)%10 < 7 {
				username := DeterministicUsername(fmt.Sprintf("%s-%d-earlysnipe", m.gameID, nowMS/1000))
				m.lastClickAt = now
				return &syntheticClick{username: username, resetTimer: true}
			}
			return nil
		default:
			// Above the threshold, let the countdown fall.
			return nil
		}
	}

	// A finished battle window lets the timer reach zero.
	if inFinalPhase && m.battleOver(now) && !hasRealPlayer {
		return nil
	}

	var minDelay time.Duration
	switch {
	case inFinalPhase:
		minDelay = 25*time.Second + time.Duration(SeedAt(m.gameID, nowMS, 5000)%25000)*time.Millisecond
	case timeLeft <= 15*time.Minute:
		minDelay = 40*time.Second + time.Duration(SeedAt(m.gameID, nowMS, 10000)%40000)*time.Millisecond
	case timeLeft <= 30*time.Minute:
		minDelay = 70*time.Second + time.Duration(SeedAt(m.gameID, nowMS, 15000)%50000)*time.Millisecond
	default:
		minDelay = 140*time.Second + time.Duration(SeedAt(m.gameID, nowMS, 20000)%100000)*time.Millisecond
	}
	minDelay = time.Duration(float64(minDelay) / m.personality)

	if now.Sub(m.lastClickAt) < minDelay {
		return nil
	}

	clickRandom := NewRand(SeedAt(m.gameID, nowMS, 1000))
	clickProbability := 0.7
	if inFinalPhase {
		// Slower contention near the end reads as suspense.
		clickProbability = 0.5
	}
	if clickRandom.Float64() > clickProbability {
		m.lastClickAt = now.Add(-minDelay).Add(3 * time.Second)
		return nil
	}

	username := DeterministicUsername(fmt.Sprintf("%s-%d-bot", m.gameID, nowMS/1000))
	m.lastClickAt = now
	return &syntheticClick{
		username:   username,
		resetTimer: timeLeft <= game.FinalPhaseThreshold,
	}
}

// battleOver reports whether this game's deterministic contention window has
// elapsed. The window length is hashed from the game id into the configured
// bounds, so every viewer agrees on it.
func (m *Mirror) battleOver(now time.Time) bool {
	if m.snap.BattleStartTime == nil {
		return false
	}
	duration := BattleDuration(m.gameID, m.cfg.BattleMinDuration, m.cfg.BattleMaxDuration)
	return now.Sub(*m.snap.BattleStartTime) >= duration
}

// BattleDuration maps a game id into [min, max).
func BattleDuration(gameID string, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	spreadMS := int64((max - min) / time.Millisecond)
	return min + time.Duration(HashSeed(gameID+"-battle-0")%spreadMS)*time.Millisecond
}
