package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	// Shared secret for the cron endpoints. Empty disables the check,
	// matching local development.
	CronSecret string `env:"CRON_SECRET"`

	NATSURL string `env:"NATS_URL"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	ClickRateLimit    int `env:"CLICK_RATE_LIMIT" envDefault:"10"`
	ClickRateWindowMS int `env:"CLICK_RATE_WINDOW_MS" envDefault:"10000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
