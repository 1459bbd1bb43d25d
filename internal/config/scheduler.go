package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type SchedulerConfig struct {
	// InternalLoop runs the reconciliation tick on an in-process ticker
	// instead of relying on an external cron hitting /api/cron/tick.
	InternalLoop bool          `env:"SCHEDULER_INTERNAL" envDefault:"false"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1m"`

	// Bot battle tuning. ClickChance is the per-game probability that a
	// tick simulates contention at all; the battle window bounds how long
	// simulated contention can keep a final phase alive.
	ClickChance       float64       `env:"BOT_CLICK_CHANCE" envDefault:"0.7"`
	MinClicksPerGame  int           `env:"BOT_MIN_CLICKS_PER_GAME" envDefault:"1"`
	MaxClicksPerGame  int           `env:"BOT_MAX_CLICKS_PER_GAME" envDefault:"5"`
	BattleMinDuration time.Duration `env:"BATTLE_MIN_DURATION" envDefault:"30m"`
	BattleMaxDuration time.Duration `env:"BATTLE_MAX_DURATION" envDefault:"119m"`

	// Rotation cron tuning.
	GamesPerRotation int           `env:"GAMES_PER_ROTATION" envDefault:"18"`
	RotationDuration time.Duration `env:"ROTATION_GAME_DURATION" envDefault:"1h"`
}

func LoadScheduler() (SchedulerConfig, error) {
	var cfg SchedulerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
