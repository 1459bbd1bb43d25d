package store_test

import (
	"context"
	"testing"
	"time"

	"lastclick/internal/store"
	"lastclick/internal/testutil"
)

func TestApplyClickIncrementsAndConditionallyResets(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	endMS := now.Add(45 * time.Second).UnixMilli()
	gameID := testutil.SeedGame(t, st, "active", now.Add(-time.Hour), endMS)

	// First click does not reset; the counter still moves.
	applied, err := st.ApplyClick(ctx, gameID, store.ClickUpdate{
		Username: "steady_hand", UserID: "", Now: now,
	})
	if err != nil || !applied {
		t.Fatalf("apply: applied=%v err=%v", applied, err)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.TotalClicks != 1 {
		t.Errorf("total_clicks = %d, want 1", g.TotalClicks)
	}
	if g.EndTimeMS != endMS {
		t.Errorf("end_time = %d, want unchanged %d", g.EndTimeMS, endMS)
	}
	if g.BattleStartTime != nil {
		t.Error("battle_start_time set without the start flag")
	}

	// Second click resets the timer and flips the status in one write.
	newEnd := now.Add(70 * time.Second).UnixMilli()
	applied, err = st.ApplyClick(ctx, gameID, store.ClickUpdate{
		Username: "steady_hand", Now: now,
		ResetTimer: true, NewEndTimeMS: newEnd, NewStatus: "final_phase", StartBattle: true,
	})
	if err != nil || !applied {
		t.Fatalf("apply reset: applied=%v err=%v", applied, err)
	}
	g, err = st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.TotalClicks != 2 {
		t.Errorf("total_clicks = %d, want 2", g.TotalClicks)
	}
	if g.EndTimeMS != newEnd {
		t.Errorf("end_time = %d, want %d", g.EndTimeMS, newEnd)
	}
	if g.Status != "final_phase" {
		t.Errorf("status = %q, want final_phase", g.Status)
	}
	if g.BattleStartTime == nil {
		t.Fatal("battle_start_time not set")
	}
	firstBattleStart := *g.BattleStartTime

	// battle_start_time is set once; a later reset click leaves it alone.
	later := now.Add(time.Minute)
	applied, err = st.ApplyClick(ctx, gameID, store.ClickUpdate{
		Username: "another_one", Now: later,
		ResetTimer: true, NewEndTimeMS: later.Add(70 * time.Second).UnixMilli(),
		NewStatus: "final_phase", StartBattle: true,
	})
	if err != nil || !applied {
		t.Fatalf("apply second reset: applied=%v err=%v", applied, err)
	}
	g, err = st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if !g.BattleStartTime.Equal(firstBattleStart) {
		t.Errorf("battle_start_time moved from %v to %v", firstBattleStart, g.BattleStartTime)
	}
}

func TestApplyClickRejectsNonRunningGame(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	for _, status := range []string{"waiting", "ended"} {
		gameID := testutil.SeedGame(t, st, status, now, now.Add(time.Hour).UnixMilli())
		applied, err := st.ApplyClick(ctx, gameID, store.ClickUpdate{Username: "too_eager", Now: now})
		if err != nil {
			t.Fatalf("%s: apply: %v", status, err)
		}
		if applied {
			t.Errorf("%s: click applied to a non-running game", status)
		}
	}
}

func TestApplyClickStoresNullUserIDForBots(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	gameID := testutil.SeedGame(t, st, "active", now.Add(-time.Hour), now.Add(time.Hour).UnixMilli())
	applied, err := st.ApplyClick(ctx, gameID, store.ClickUpdate{Username: "GoldRush55", UserID: "", Now: now})
	if err != nil || !applied {
		t.Fatalf("apply: applied=%v err=%v", applied, err)
	}
	g, err := st.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.LastClickUserID != nil {
		t.Errorf("last_click_user_id = %q, want NULL", *g.LastClickUserID)
	}
}

func TestExpireGameIsConditionalAndIdempotent(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	// Timer still has time left: expiry must not apply.
	liveID := testutil.SeedGame(t, st, "final_phase", now.Add(-time.Hour), now.Add(time.Minute).UnixMilli())
	_, applied, err := st.ExpireGame(ctx, liveID, now)
	if err != nil {
		t.Fatalf("expire live: %v", err)
	}
	if applied {
		t.Error("expired a game with time left")
	}

	deadID := testutil.SeedGame(t, st, "final_phase", now.Add(-time.Hour), now.Add(-time.Second).UnixMilli())
	winner, applied, err := st.ExpireGame(ctx, deadID, now)
	if err != nil || !applied {
		t.Fatalf("expire dead: applied=%v err=%v", applied, err)
	}
	if winner != nil {
		t.Errorf("winner = %q, want none with no clicks", *winner)
	}

	// Second expiry is a no-op.
	_, applied, err = st.ExpireGame(ctx, deadID, now)
	if err != nil {
		t.Fatalf("second expire: %v", err)
	}
	if applied {
		t.Error("expiry applied twice")
	}
}

func TestListGamesByStatusFiltersAndOrders(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	lateID := testutil.SeedGame(t, st, "active", now.Add(-time.Hour), now.Add(2*time.Hour).UnixMilli())
	soonID := testutil.SeedGame(t, st, "active", now.Add(-time.Hour), now.Add(time.Hour).UnixMilli())
	testutil.SeedGame(t, st, "ended", now.Add(-3*time.Hour), now.Add(-2*time.Hour).UnixMilli())

	games, err := st.ListGamesByStatus(ctx, []string{"active"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("games = %d, want 2", len(games))
	}
	if games[0].ID != soonID || games[1].ID != lateID {
		t.Errorf("order = [%s %s], want soonest-ending first [%s %s]", games[0].ID, games[1].ID, soonID, lateID)
	}

	all, err := st.ListGamesByStatus(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all games = %d, want 3", len(all))
	}
}

func TestSpendAndRefundCredits(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	userID, err := st.CreateProfile(ctx, "budget_player", 1)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	spent, err := st.SpendCredits(ctx, userID, 1)
	if err != nil || !spent {
		t.Fatalf("spend: spent=%v err=%v", spent, err)
	}
	spent, err = st.SpendCredits(ctx, userID, 1)
	if err != nil {
		t.Fatalf("second spend: %v", err)
	}
	if spent {
		t.Error("spent from an empty balance")
	}

	if err := st.RefundCredits(ctx, userID, 1); err != nil {
		t.Fatalf("refund: %v", err)
	}
	p, err := st.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Credits != 1 {
		t.Errorf("credits = %d, want 1 after refund", p.Credits)
	}
	if p.TotalClicks != 0 {
		t.Errorf("total_clicks = %d, want 0 after refund", p.TotalClicks)
	}
}

func TestGetGameNotFound(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()

	if _, err := st.GetGame(context.Background(), "missing"); err != store.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
