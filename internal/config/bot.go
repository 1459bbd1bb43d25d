package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// BotConfig drives cmd/lobby-bot, the per-viewer deterministic mirror.
type BotConfig struct {
	WSURL        string        `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	APIBaseURL   string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	GameID       string        `env:"GAME_ID,required,notEmpty"`
	TickInterval time.Duration `env:"MIRROR_TICK_INTERVAL" envDefault:"1s"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
