package click

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrGameNotFound        = errors.New("game_not_found")
	ErrGameNotRunning      = errors.New("game_not_running")
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrRateLimited         = errors.New("rate_limited")
)
