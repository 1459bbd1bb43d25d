package game

import "time"

// Status is the stored lifecycle state of a game.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusActive     Status = "active"
	StatusFinalPhase Status = "final_phase"
	StatusEnded      Status = "ended"
)

// Timer contract. A click inside the final-phase threshold resets the
// countdown to the reset buffer; the buffer exceeds the threshold so a
// once-a-minute reconciliation cannot expire a freshly reset game.
const (
	FinalPhaseThreshold = 60 * time.Second
	FinalPhaseReset     = 70 * time.Second
	InitialDuration     = 24 * time.Hour
	ClickCooldown       = time.Second
)

const (
	InitialCredits  = 10
	CreditsPerClick = 1
)

// Running reports whether the game still accepts clicks.
func (s Status) Running() bool {
	return s == StatusActive || s == StatusFinalPhase
}

// TimeLeft is the remaining countdown, floored at zero. end_time is stored
// as milliseconds since epoch.
func TimeLeft(endTimeMS int64, now time.Time) time.Duration {
	left := time.Duration(endTimeMS-now.UnixMilli()) * time.Millisecond
	if left < 0 {
		return 0
	}
	return left
}

// InFinalPhase reports whether the countdown is inside the reset window.
func InFinalPhase(endTimeMS int64, now time.Time) bool {
	left := TimeLeft(endTimeMS, now)
	return left > 0 && left <= FinalPhaseThreshold
}

// EffectivePhase is the phase every reader must derive identically from the
// stored row, regardless of whether the tick has caught up and written
// status yet. The stored status is authoritative only for waiting and ended;
// for a running game the countdown decides.
func EffectivePhase(status Status, endTimeMS int64, now time.Time) Status {
	switch status {
	case StatusWaiting, StatusEnded:
		return status
	}
	if TimeLeft(endTimeMS, now) == 0 {
		return StatusEnded
	}
	if InFinalPhase(endTimeMS, now) {
		return StatusFinalPhase
	}
	return StatusActive
}
