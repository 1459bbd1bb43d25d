package public

import "time"

type GameItem struct {
	GameID      string `json:"game_id"`
	ItemName    string `json:"item_name"`
	Status      string `json:"status"`
	Phase       string `json:"phase"`
	EndTimeMS   int64  `json:"end_time"`
	TimeLeftMS  int64  `json:"time_left_ms"`
	TotalClicks int64  `json:"total_clicks"`

	LastClickUsername string     `json:"last_click_username,omitempty"`
	LastClickUserID   string     `json:"last_click_user_id,omitempty"`
	LastClickIsBot    bool       `json:"last_click_is_bot"`
	WinnerID          string     `json:"winner_id,omitempty"`
	BattleStartTime   *time.Time `json:"battle_start_time,omitempty"`
	StartTime         time.Time  `json:"start_time"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
}

type GamesResponse struct {
	Items []GameItem `json:"items"`
}

type ClickItem struct {
	ID        string `json:"id"`
	GameID    string `json:"game_id"`
	Username  string `json:"username"`
	ItemName  string `json:"item_name"`
	IsBot     bool   `json:"is_bot"`
	Timestamp int64  `json:"timestamp"`
}

type ClicksResponse struct {
	Clicks []ClickItem `json:"clicks"`
	Count  int         `json:"count"`
}
