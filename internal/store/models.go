package store

import "time"

type Item struct {
	ID         string
	Name       string
	ImageURL   string
	ValueCents int64
	CreatedAt  time.Time
}

type Game struct {
	ID                string
	ItemID            string
	ItemName          string
	Status            string
	StartTime         time.Time
	EndTimeMS         int64
	InitialDurationMS int64
	TotalClicks       int64
	LastClickUsername *string
	LastClickUserID   *string
	LastClickAt       *time.Time
	BattleStartTime   *time.Time
	WinnerID          *string
	CreatedAt         time.Time
	EndedAt           *time.Time
}

type Click struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	UserID    *string   `json:"user_id,omitempty"`
	Username  string    `json:"username"`
	ItemName  string    `json:"item_name"`
	IsBot     bool      `json:"is_bot"`
	ClickedAt time.Time `json:"clicked_at"`
}

type Profile struct {
	ID          string
	Username    string
	Credits     int64
	TotalClicks int64
	CreatedAt   time.Time
}

// ActivatedGame is one row the bulk activation pass flipped to active.
type ActivatedGame struct {
	ID        string    `json:"id"`
	ItemName  string    `json:"name"`
	StartTime time.Time `json:"start_time"`
}

// ClickUpdate is the single-row conditional write a valid click produces.
// The total_clicks increment happens in SQL so racing clicks both count;
// the timer fields apply last-writer-wins.
type ClickUpdate struct {
	Username     string
	UserID       string // empty stores NULL (synthetic click)
	ResetTimer   bool
	NewEndTimeMS int64
	NewStatus    string
	StartBattle  bool
	Now          time.Time
}
