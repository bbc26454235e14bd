package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ericogr/monster-battle/internal/engine"
	"github.com/ericogr/monster-battle/internal/game"
)

// steadyRand pins variance to 1.0, never crits and always picks move 0.
type steadyRand struct{}

func (steadyRand) Float64() float64 { return 0.5 }
func (steadyRand) Intn(n int) int   { return 0 }

type fakeSetup struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	setup   game.BattleSetup
	entered chan struct{}
	block   bool
}

func (f *fakeSetup) FetchBattleSetup(ctx context.Context) (game.BattleSetup, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	block := f.block && call == 1
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()
	if block {
		close(f.entered)
		<-ctx.Done()
		return game.BattleSetup{}, ctx.Err()
	}
	if err != nil {
		return game.BattleSetup{}, err
	}
	return f.setup, nil
}

type fakeArt struct{ calls int }

func (f *fakeArt) FetchCreatureArt(ctx context.Context, t game.CreatureTemplate) string {
	f.calls++
	return "art_" + strings.ToLower(t.Name)
}

func moves(power int) []game.Move {
	return []game.Move{
		{Name: "MoveA", Type: game.Fire, Power: power},
		{Name: "MoveB", Type: game.Fire, Power: power},
	}
}

func scenarioSetup() game.BattleSetup {
	return game.BattleSetup{
		Player:   game.CreatureTemplate{Name: "Sparky", Type: game.Electric, MaxHP: 100, Attack: 50, Defense: 50, Speed: 60, Moves: moves(40)},
		Opponent: game.CreatureTemplate{Name: "Mossy", Type: game.Grass, MaxHP: 100, Attack: 50, Defense: 50, Speed: 40, Moves: moves(40)},
	}
}

func newTestSession(setup *fakeSetup) (*Session, *ManualScheduler) {
	sched := NewManualScheduler()
	s := NewSession("s1", Options{
		Setup:         setup,
		Art:           &fakeArt{},
		Scheduler:     sched,
		OpponentDelay: 1500 * time.Millisecond,
		Rand:          steadyRand{},
	})
	return s, sched
}

func TestStartBattle(t *testing.T) {
	s, _ := newTestSession(&fakeSetup{setup: scenarioSetup()})
	v, err := s.StartBattle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Phase != PhaseBattle || v.Battle == nil {
		t.Fatalf("expected a running battle, got %+v", v)
	}
	b := v.Battle
	if b.Turn != game.SidePlayer || b.Status != game.StatusBattle || len(b.Logs) != 2 {
		t.Fatalf("unexpected initial state: %+v", b)
	}
	if b.Player.ID != game.SidePlayer || b.Opponent.ID != game.SideOpponent || b.Opponent.CurrentHP != 100 {
		t.Fatalf("unexpected creatures: %+v / %+v", b.Player, b.Opponent)
	}
	if b.Player.Art != "art_sparky" || b.Opponent.Art != "art_mossy" {
		t.Fatalf("expected art handles, got %q and %q", b.Player.Art, b.Opponent.Art)
	}
}

func TestSelectMoveDefersOpponentTurn(t *testing.T) {
	s, sched := newTestSession(&fakeSetup{setup: scenarioSetup()})
	if _, err := s.StartBattle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	v, err := s.SelectMove(0)
	if err != nil {
		t.Fatalf("select move: %v", err)
	}
	if v.Battle.Opponent.CurrentHP != 80 || v.Battle.Turn != game.SideOpponent || v.Battle.Status != game.StatusBattle {
		t.Fatalf("expected opponent at 80 HP and their turn, got %+v", v.Battle)
	}
	if got := v.Battle.Logs[len(v.Battle.Logs)-1]; got != "Sparky used MoveA! It dealt 20 damage." {
		t.Fatalf("unexpected log line %q", got)
	}
	if v.Battle.Player.CurrentHP != 100 {
		t.Fatalf("opponent must not act before the delay")
	}

	sched.Advance(1499 * time.Millisecond)
	if s.View().Battle.Turn != game.SideOpponent {
		t.Fatalf("opponent acted too early")
	}
	sched.Advance(time.Millisecond)
	b := s.View().Battle
	if b.Turn != game.SidePlayer || b.Player.CurrentHP != 80 || len(b.Logs) != 4 {
		t.Fatalf("expected opponent answer after the delay, got %+v", b)
	}
}

func TestSelectMoveIgnoredOutsidePlayerTurn(t *testing.T) {
	s, sched := newTestSession(&fakeSetup{setup: scenarioSetup()})
	if v, err := s.SelectMove(0); err != nil || v.Battle != nil {
		t.Fatalf("move without battle should be a silent no-op, got %+v (%v)", v, err)
	}
	if _, err := s.StartBattle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	first, _ := s.SelectMove(0)
	again, err := s.SelectMove(1)
	if err != nil {
		t.Fatalf("illegal action must not surface an error, got %v", err)
	}
	if len(again.Battle.Logs) != len(first.Battle.Logs) || again.Revision != first.Revision {
		t.Fatalf("illegal action changed state")
	}
	if sched.Pending() != 1 {
		t.Fatalf("expected exactly one scheduled opponent turn, got %d", sched.Pending())
	}
}

func TestSelectMoveInvalidIndex(t *testing.T) {
	s, _ := newTestSession(&fakeSetup{setup: scenarioSetup()})
	if _, err := s.StartBattle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.SelectMove(7); !errors.Is(err, engine.ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if s.View().Battle.Turn != game.SidePlayer {
		t.Fatalf("invalid index must not change the turn")
	}
}

func TestBattleRunsToTerminalState(t *testing.T) {
	s, sched := newTestSession(&fakeSetup{setup: scenarioSetup()})
	if _, err := s.StartBattle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	// 20 damage per hit: the faster player lands the fifth hit first.
	for i := 0; i < 10 && !s.View().Battle.Terminal(); i++ {
		if _, err := s.SelectMove(0); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		sched.Advance(1500 * time.Millisecond)
	}
	b := s.View().Battle
	if b.Status != game.StatusWon || b.Opponent.CurrentHP != 0 || b.Player.CurrentHP != 20 {
		t.Fatalf("expected a win with player at 20 HP, got %+v", b)
	}
	if got := b.Logs[len(b.Logs)-1]; got != "Mossy fainted! You won!" {
		t.Fatalf("unexpected final log %q", got)
	}
	before := s.View()
	after, err := s.SelectMove(0)
	if err != nil || after.Revision != before.Revision || sched.Pending() != 0 {
		t.Fatalf("terminal battle must ignore moves")
	}
}

func TestOpponentFirstActsAfterDelay(t *testing.T) {
	setup := scenarioSetup()
	setup.Opponent.Speed = 99
	s, sched := newTestSession(&fakeSetup{setup: setup})
	v, err := s.StartBattle(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.Battle.Turn != game.SideOpponent || sched.Pending() != 1 {
		t.Fatalf("expected a scheduled opponent opening, got turn %s pending %d", v.Battle.Turn, sched.Pending())
	}
	sched.Advance(1500 * time.Millisecond)
	if b := s.View().Battle; b.Turn != game.SidePlayer || b.Player.CurrentHP != 80 {
		t.Fatalf("expected the opponent to open, got %+v", b)
	}
}

func TestSetupFailureLeavesNoBattleAndRetries(t *testing.T) {
	setup := &fakeSetup{setup: scenarioSetup(), errs: []error{errors.New("schema mismatch")}}
	s, _ := newTestSession(setup)

	v, err := s.StartBattle(context.Background())
	var se *SetupError
	if !errors.As(err, &se) || !errors.Is(err, ErrSetupFailed) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if v.Battle != nil || v.Phase != PhaseFailed || v.Error == "" {
		t.Fatalf("failed setup must leave no battle and a retryable message, got %+v", v)
	}

	v, err = s.StartBattle(context.Background())
	if err != nil || v.Battle == nil || v.Error != "" {
		t.Fatalf("retry should succeed independently, got %+v (%v)", v, err)
	}
}

func TestRestartCancelsScheduledOpponentTurn(t *testing.T) {
	s, sched := newTestSession(&fakeSetup{setup: scenarioSetup()})
	if _, err := s.StartBattle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.SelectMove(0); err != nil {
		t.Fatalf("move: %v", err)
	}
	v, err := s.StartBattle(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if sched.Pending() != 0 {
		t.Fatalf("restart should cancel the pending opponent turn")
	}
	sched.Advance(time.Minute)
	after := s.View()
	b := after.Battle
	if b.Player.CurrentHP != 100 || b.Opponent.CurrentHP != 100 || len(b.Logs) != 2 {
		t.Fatalf("restart must produce a fresh battle, got %+v", b)
	}
	if after.Revision != v.Revision {
		t.Fatalf("nothing should happen after restart without input")
	}
}

func TestRestartSupersedesInFlightStart(t *testing.T) {
	setup := &fakeSetup{setup: scenarioSetup(), block: true, entered: make(chan struct{})}
	s, _ := newTestSession(setup)

	done := make(chan error, 1)
	go func() {
		_, err := s.StartBattle(context.Background())
		done <- err
	}()
	<-setup.entered

	v, err := s.StartBattle(context.Background())
	if err != nil || v.Battle == nil {
		t.Fatalf("second start should win, got %+v (%v)", v, err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded start did not return")
	}
	if s.View().Battle == nil {
		t.Fatalf("superseded start must not clear the newer battle")
	}
}

func TestSubscribeReceivesEveryTransition(t *testing.T) {
	s, sched := newTestSession(&fakeSetup{setup: scenarioSetup()})
	ch, cancel := s.Subscribe()
	defer cancel()
	if v := <-ch; v.Phase != PhaseIdle {
		t.Fatalf("expected the current view first, got %+v", v)
	}

	go func() { _, _ = s.StartBattle(context.Background()) }()
	var last View
	for last.Phase != PhaseBattle {
		select {
		case last = <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("no battle view received")
		}
	}
	if _, err := s.SelectMove(0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if v := <-ch; v.Battle.Turn != game.SideOpponent {
		t.Fatalf("expected player move view, got %+v", v.Battle)
	}
	sched.Advance(1500 * time.Millisecond)
	if v := <-ch; v.Battle.Turn != game.SidePlayer {
		t.Fatalf("expected opponent move view, got %+v", v.Battle)
	}
}

func TestCloseEndsSubscriptionsAndCommands(t *testing.T) {
	s, sched := newTestSession(&fakeSetup{setup: scenarioSetup()})
	ch, _ := s.Subscribe()
	<-ch
	if _, err := s.StartBattle(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = s.SelectMove(0)
	s.Close()
	for range ch {
	}
	if sched.Pending() != 0 {
		t.Fatalf("close should cancel pending work")
	}
	if _, err := s.StartBattle(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
