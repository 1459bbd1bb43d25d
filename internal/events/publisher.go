// Package events pushes click and lifecycle changes to whoever is watching.
// The authoritative store stays the source of truth; this is the
// best-effort change feed viewers subscribe to.
package events

import (
	"encoding/json"
	"time"

	"lastclick/internal/store"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	SubjectClicks = "lastclick.clicks"
	SubjectGames  = "lastclick.games"
)

// GameUpdate is the wire shape of a game change event.
type GameUpdate struct {
	GameID            string     `json:"game_id"`
	Status            string     `json:"status"`
	EndTimeMS         int64      `json:"end_time"`
	TotalClicks       int64      `json:"total_clicks,omitempty"`
	LastClickUsername string     `json:"last_click_username,omitempty"`
	LastClickUserID   string     `json:"last_click_user_id,omitempty"`
	BattleStartTime   *time.Time `json:"battle_start_time,omitempty"`
	WinnerID          string     `json:"winner_id,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Publisher fans out change events. Implementations must be safe for
// concurrent use and must never block request handling on delivery.
type Publisher interface {
	PublishClick(c store.Click)
	PublishGameUpdate(u GameUpdate)
	Close()
}

type natsPublisher struct {
	nc *nats.Conn
}

// Connect dials the broker with reconnect handling. The server shares one
// connection between the publisher and the websocket hub.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Error().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
}

// NewNATS wraps an existing connection; publishing is fire-and-forget core
// NATS, matching the ephemeral nature of a live feed.
func NewNATS(nc *nats.Conn) Publisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) PublishClick(c store.Click) {
	p.publish(SubjectClicks+"."+c.GameID, c)
}

func (p *natsPublisher) PublishGameUpdate(u GameUpdate) {
	p.publish(SubjectGames+"."+u.GameID, u)
}

func (p *natsPublisher) publish(subject string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("marshal event")
		return
	}
	if err := p.nc.Publish(subject, b); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("publish event")
	}
}

func (p *natsPublisher) Close() {
	p.nc.Drain()
}

// Noop is used when no broker is configured; the HTTP API still works,
// viewers just fall back to polling.
type Noop struct{}

func (Noop) PublishClick(store.Click)     {}
func (Noop) PublishGameUpdate(GameUpdate) {}
func (Noop) Close()                       {}
