// lobby-bot runs the deterministic viewer mirror against a live server: it
// watches one game over the websocket feed and plays back the synthetic
// contention a browser viewer would see, clicking through the public
// bot-click endpoint.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lastclick/internal/botsim"
	"lastclick/internal/config"
	"lastclick/internal/events"
	"lastclick/internal/game"
	"lastclick/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := &apiSink{baseURL: cfg.APIBaseURL, http: &http.Client{Timeout: 5 * time.Second}}
	mirror := botsim.NewMirror(cfg.GameID, sink, nil, botsim.Config{TickInterval: cfg.TickInterval})

	if snap, err := fetchSnapshot(ctx, sink.http, cfg.APIBaseURL, cfg.GameID); err != nil {
		log.Warn().Err(err).Msg("initial snapshot fetch failed, waiting for feed")
	} else {
		mirror.Observe(snap)
	}

	go watchFeed(ctx, cfg, mirror)

	log.Info().Str("game_id", cfg.GameID).Msg("mirror running")
	mirror.Run(ctx)
}

// apiSink posts synthetic clicks through the same public endpoint the
// scheduler's battle uses.
type apiSink struct {
	baseURL string
	http    *http.Client
}

func (s *apiSink) RecordBotClick(ctx context.Context, gameID, username string) error {
	body, _ := json.Marshal(map[string]string{"gameId": gameID, "username": username})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/games/bot-click", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bot-click status %d", resp.StatusCode)
	}
	return nil
}

func fetchSnapshot(ctx context.Context, client *http.Client, baseURL, gameID string) (botsim.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/games/"+gameID, nil)
	if err != nil {
		return botsim.Snapshot{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return botsim.Snapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return botsim.Snapshot{}, fmt.Errorf("game fetch status %d", resp.StatusCode)
	}
	var g struct {
		Status            string     `json:"status"`
		EndTimeMS         int64      `json:"end_time"`
		LastClickUsername string     `json:"last_click_username"`
		LastClickUserID   string     `json:"last_click_user_id"`
		BattleStartTime   *time.Time `json:"battle_start_time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return botsim.Snapshot{}, err
	}
	return botsim.Snapshot{
		Status:            game.Status(g.Status),
		EndTimeMS:         g.EndTimeMS,
		LastClickUsername: g.LastClickUsername,
		LastClickUserID:   g.LastClickUserID,
		BattleStartTime:   g.BattleStartTime,
		UpdatedAt:         time.Now(),
	}, nil
}

// watchFeed keeps a websocket subscription to the game's change feed alive,
// reconnecting with a flat backoff until the context is cancelled.
func watchFeed(ctx context.Context, cfg config.BotConfig, mirror *botsim.Mirror) {
	url := cfg.WSURL + "?game_id=" + cfg.GameID
	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("ws dial failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		readFeed(ctx, conn, mirror)
		conn.Close()
	}
}

func readFeed(ctx context.Context, conn *websocket.Conn, mirror *botsim.Mirror) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Msg("ws read failed")
			return
		}
		// The feed carries both click rows and game updates; only the
		// latter have a status field.
		var u events.GameUpdate
		if err := json.Unmarshal(data, &u); err != nil || u.GameID == "" || u.Status == "" {
			continue
		}
		mirror.Observe(botsim.Snapshot{
			Status:            game.Status(u.Status),
			EndTimeMS:         u.EndTimeMS,
			LastClickUsername: u.LastClickUsername,
			LastClickUserID:   u.LastClickUserID,
			BattleStartTime:   u.BattleStartTime,
			UpdatedAt:         u.UpdatedAt,
		})
	}
}
