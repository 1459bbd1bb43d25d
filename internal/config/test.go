package config

import "github.com/caarlos0/env/v11"

// TestConfig is read only by testutil. Missing TEST_POSTGRES_DSN makes
// DB-backed tests skip instead of fail.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
