package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	appclick "lastclick/internal/app/click"
	"lastclick/internal/config"
	"lastclick/internal/game"
	"lastclick/internal/ratelimit"
	"lastclick/internal/store"
	"lastclick/internal/testutil"

	"github.com/jonboulle/clockwork"
)

func testCfg() config.SchedulerConfig {
	return config.SchedulerConfig{
		TickInterval:      time.Minute,
		ClickChance:       1.0,
		MinClicksPerGame:  1,
		MaxClicksPerGame:  3,
		BattleMinDuration: 30 * time.Minute,
		BattleMaxDuration: 119 * time.Minute,
		GamesPerRotation:  2,
		RotationDuration:  time.Hour,
	}
}

func newTestTick(t *testing.T, st *store.Store, clock clockwork.Clock, cfg config.SchedulerConfig) *Tick {
	t.Helper()
	svc := appclick.NewService(st, nil, ratelimit.NewMemory(clock), clock,
		config.ServerConfig{ClickRateLimit: 1000, ClickRateWindowMS: 10_000})
	return New(st, svc, nil, clock, cfg)
}

func TestRunActivatesDueGames(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	now := clock.Now()

	due := testutil.SeedGame(t, st, "waiting", now.Add(-time.Minute), now.Add(time.Hour).UnixMilli())
	future := testutil.SeedGame(t, st, "waiting", now.Add(time.Hour), now.Add(2*time.Hour).UnixMilli())

	tick := newTestTick(t, st, clock, testCfg())
	sum, err := tick.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Activated != 1 {
		t.Fatalf("activated = %d, want 1", sum.Activated)
	}
	g, err := st.GetGame(ctx, due)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != "active" {
		t.Errorf("due game status = %q, want active", g.Status)
	}
	g, err = st.GetGame(ctx, future)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != "waiting" {
		t.Errorf("future game status = %q, want waiting", g.Status)
	}

	// Re-running must not re-activate.
	sum, err = tick.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Activated != 0 {
		t.Errorf("second run activated = %d, want 0", sum.Activated)
	}
}

func TestRunExpiresRunOutGameWithWinner(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	now := clock.Now()

	gameID := testutil.SeedGame(t, st, "final_phase", now.Add(-time.Hour), now.Add(-time.Second).UnixMilli())
	userID, err := st.CreateProfile(ctx, "winner_to_be", 10)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	applied, err := st.ApplyClick(ctx, gameID, store.ClickUpdate{
		Username: "winner_to_be", UserID: userID, Now: now.Add(-2 * time.Second),
	})
	if err != nil || !applied {
		t.Fatalf("seed click: applied=%v err=%v", applied, err)
	}

	cfg := testCfg()
	cfg.ClickChance = 0 // no battle, let it fall
	tick := newTestTick(t, st, clock, cfg)
	sum, err := tick.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Ended != 1 {
		t.Fatalf("ended = %d, want 1", sum.Ended)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != "ended" {
		t.Errorf("status = %q, want ended", g.Status)
	}
	if g.WinnerID == nil || *g.WinnerID != userID {
		t.Errorf("winner_id = %v, want %s", g.WinnerID, userID)
	}

	sum, err = tick.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Ended != 0 {
		t.Errorf("second run ended = %d, want 0", sum.Ended)
	}
}

func TestRunExpireWithoutRealClicksHasNoWinner(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	now := clock.Now()

	gameID := testutil.SeedGame(t, st, "final_phase", now.Add(-time.Hour), now.Add(-time.Second).UnixMilli())
	// A synthetic click carries no user id and must not produce a winner.
	applied, err := st.ApplyClick(ctx, gameID, store.ClickUpdate{
		Username: "QuickDraw42", Now: now.Add(-2 * time.Second),
	})
	if err != nil || !applied {
		t.Fatalf("seed bot click: applied=%v err=%v", applied, err)
	}

	cfg := testCfg()
	cfg.ClickChance = 0
	tick := newTestTick(t, st, clock, cfg)
	if _, err := tick.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != "ended" {
		t.Errorf("status = %q, want ended", g.Status)
	}
	if g.WinnerID != nil {
		t.Errorf("winner_id = %q, want none", *g.WinnerID)
	}
}

func TestRunBattleKeepsFinalPhaseAlive(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	now := clock.Now()

	// 55 seconds left: inside the threshold, so a click must reset the timer
	// and the game must outlive this tick.
	gameID := testutil.SeedGame(t, st, "active", now.Add(-time.Hour), now.Add(55*time.Second).UnixMilli())

	tick := newTestTick(t, st, clock, testCfg())
	sum, err := tick.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.BotClicks < 1 {
		t.Fatalf("bot clicks = %d, want >= 1", sum.BotClicks)
	}
	if sum.Ended != 0 {
		t.Errorf("ended = %d, want 0", sum.Ended)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != "final_phase" {
		t.Errorf("status = %q, want final_phase", g.Status)
	}
	wantEnd := now.Add(game.FinalPhaseReset).UnixMilli()
	if g.EndTimeMS != wantEnd {
		t.Errorf("end_time = %d, want %d", g.EndTimeMS, wantEnd)
	}
	if g.BattleStartTime == nil {
		t.Error("battle_start_time not set on entering final phase")
	}
	if g.LastClickUserID != nil {
		t.Errorf("bot click recorded a user id: %v", *g.LastClickUserID)
	}
}

func TestRunLeavesCalmGamesAlone(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	now := clock.Now()

	gameID := testutil.SeedGame(t, st, "active", now.Add(-time.Hour), now.Add(10*time.Minute).UnixMilli())

	tick := newTestTick(t, st, clock, testCfg())
	sum, err := tick.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.BotClicks != 0 {
		t.Errorf("bot clicks = %d, want 0 outside the final window", sum.BotClicks)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.TotalClicks != 0 {
		t.Errorf("total_clicks = %d, want 0", g.TotalClicks)
	}
}

func TestRunElapsedBattleDecays(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())
	now := clock.Now()

	gameID := testutil.SeedGame(t, st, "final_phase", now.Add(-3*time.Hour), now.Add(30*time.Second).UnixMilli())
	// Battle started past the longest possible window, no real player leads.
	battleStart := now.Add(-2 * time.Hour)
	if _, err := st.Pool.Exec(ctx, `UPDATE games SET battle_start_time = $2, last_click_username = 'SwiftStrike7' WHERE id = $1`,
		gameID, battleStart); err != nil {
		t.Fatalf("seed battle start: %v", err)
	}

	tick := newTestTick(t, st, clock, testCfg())
	sum, err := tick.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.BotClicks != 0 {
		t.Errorf("bot clicks = %d, want 0 after the battle window elapsed", sum.BotClicks)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.EndTimeMS != now.Add(30*time.Second).UnixMilli() {
		t.Errorf("end_time moved to %d on a decaying game", g.EndTimeMS)
	}
}

// The internal loop and the cron endpoints can drive the scheduler at the
// same time, so the random draws behind battle and rotation must tolerate
// overlapping callers. Run with -race.
func TestBattleAndRotateDrawsAreConcurrencySafe(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	cfg := testCfg()
	cfg.ClickChance = 0 // roll and skip, no store access
	cfg.MinClicksPerGame = 0
	cfg.MaxClicksPerGame = 0
	tick := New(nil, nil, nil, clock, cfg)

	now := clock.Now()
	g := store.Game{ID: "contested", ItemName: "prize", Status: "final_phase",
		EndTimeMS: now.Add(30 * time.Second).UnixMilli()}
	items := []store.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				tick.battle(context.Background(), &g, now)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tick.shuffleItems(items)
		}
	}()
	wg.Wait()
}

func TestRotateWithoutWindowUsesFullCountdown(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())

	if _, err := st.CreateItem(ctx, "hand-rotated-prize", "", 5000); err != nil {
		t.Fatalf("create item: %v", err)
	}

	cfg := testCfg()
	cfg.RotationDuration = 0
	tick := newTestTick(t, st, clock, cfg)
	sum, err := tick.Rotate(ctx)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if sum.Created != 1 {
		t.Fatalf("created = %d, want 1", sum.Created)
	}

	games, err := st.ListRunningGames(ctx)
	if err != nil {
		t.Fatalf("list running: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("running games = %d, want 1", len(games))
	}
	wantEnd := clock.Now().Add(game.InitialDuration).UnixMilli()
	if games[0].EndTimeMS != wantEnd {
		t.Errorf("end_time = %d, want full countdown %d", games[0].EndTimeMS, wantEnd)
	}
}

func TestRotateCreatesGamesOnIdleItems(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())

	for i := 0; i < 3; i++ {
		if _, err := st.CreateItem(ctx, fmt.Sprintf("idle-prize-%d", i), "", 5000); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	tick := newTestTick(t, st, clock, testCfg())
	sum, err := tick.Rotate(ctx)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if sum.Created != 2 {
		t.Fatalf("created = %d, want 2 (games per rotation)", sum.Created)
	}

	games, err := st.ListRunningGames(ctx)
	if err != nil {
		t.Fatalf("list running: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("running games = %d, want 2", len(games))
	}
	wantStart := clock.Now().Truncate(time.Hour)
	for _, g := range games {
		if !g.StartTime.Equal(wantStart) {
			t.Errorf("start_time = %v, want hour-aligned %v", g.StartTime, wantStart)
		}
		if g.EndTimeMS != wantStart.Add(time.Hour).UnixMilli() {
			t.Errorf("end_time = %d, want %d", g.EndTimeMS, wantStart.Add(time.Hour).UnixMilli())
		}
	}

	// Items now carry live games; another rotation finds nothing but the
	// remaining idle item.
	sum, err = tick.Rotate(ctx)
	if err != nil {
		t.Fatalf("second rotate: %v", err)
	}
	if sum.Created != 1 {
		t.Errorf("second rotate created = %d, want 1", sum.Created)
	}
}

func TestResetCreditsTopsUpToFloor(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Now())

	poorID, err := st.CreateProfile(ctx, "down_to_two", 2)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	richID, err := st.CreateProfile(ctx, "sitting_pretty", 40)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	tick := newTestTick(t, st, clock, testCfg())
	n, err := tick.ResetCredits(ctx)
	if err != nil {
		t.Fatalf("reset credits: %v", err)
	}
	if n != 1 {
		t.Errorf("topped up %d profiles, want 1", n)
	}
	poor, err := st.GetProfile(ctx, poorID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if poor.Credits != game.InitialCredits {
		t.Errorf("credits = %d, want %d", poor.Credits, game.InitialCredits)
	}
	rich, err := st.GetProfile(ctx, richID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if rich.Credits != 40 {
		t.Errorf("rich credits = %d, want untouched 40", rich.Credits)
	}
}
