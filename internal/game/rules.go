package game

import (
	"errors"
	"time"
)

var (
	// ErrNotRunning rejects clicks on games that are waiting or ended.
	// Callers surface it as a precondition failure, never a fault.
	ErrNotRunning = errors.New("game not running")
)

// Snapshot is the slice of a game row the transition rules need.
type Snapshot struct {
	Status        Status
	EndTimeMS     int64
	BattleStarted bool
}

// Clicker identifies who clicked. UserID is empty for bot clicks.
type Clicker struct {
	UserID   string
	Username string
}

// ClickOutcome describes the single-row conditional update a valid click
// produces. TotalClicks is incremented in SQL, not here, so two racing
// clicks both count.
type ClickOutcome struct {
	Username string
	UserID   string // empty → store NULL

	ResetTimer   bool
	NewEndTimeMS int64
	NewStatus    Status // only meaningful when ResetTimer
	StartBattle  bool   // first entry into final phase
}

// ApplyClick evaluates the state machine for one click at the given time.
// Inside the final-phase threshold the countdown resets to the buffer and
// the status is written explicitly; outside, the countdown is untouched.
func ApplyClick(s Snapshot, c Clicker, now time.Time) (ClickOutcome, error) {
	if !s.Status.Running() {
		return ClickOutcome{}, ErrNotRunning
	}

	out := ClickOutcome{
		Username: c.Username,
		UserID:   c.UserID,
	}
	if TimeLeft(s.EndTimeMS, now) <= FinalPhaseThreshold {
		out.ResetTimer = true
		out.NewEndTimeMS = now.Add(FinalPhaseReset).UnixMilli()
		out.NewStatus = StatusFinalPhase
		out.StartBattle = !s.BattleStarted
	}
	return out, nil
}

// WinnerID applies the winner rule at expiry: the prize goes to the last
// clicker only when that click came from a real user. A game whose timer ran
// out under synthetic contention ends with no winner.
func WinnerID(lastClickUserID string) (string, bool) {
	if lastClickUserID == "" {
		return "", false
	}
	return lastClickUserID, true
}
