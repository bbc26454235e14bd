package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/engine"
	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/narration"
	"github.com/ericogr/monster-battle/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrSetupFailed is wrapped by every SetupError.
	ErrSetupFailed = errors.New("battle setup failed")
	// ErrSuperseded is returned by a StartBattle call that was overtaken by
	// a newer StartBattle or by Close.
	ErrSuperseded = errors.New("battle start superseded")
	ErrClosed     = errors.New("session closed")
)

// SetupError reports that the provider could not produce a battle. No
// battle state exists afterwards; starting again is always allowed.
type SetupError struct {
	Cause error
}

func (e *SetupError) Error() string { return ErrSetupFailed.Error() + ": " + e.Cause.Error() }

func (e *SetupError) Unwrap() []error { return []error{ErrSetupFailed, e.Cause} }

// SetupProvider produces the two creature templates of a battle.
type SetupProvider interface {
	FetchBattleSetup(ctx context.Context) (game.BattleSetup, error)
}

// ArtProvider resolves an art handle for a creature. It must not fail; an
// empty handle means no art.
type ArtProvider interface {
	FetchCreatureArt(ctx context.Context, t game.CreatureTemplate) string
}

// Narrator renders both battle log lines and loading messages.
type Narrator interface {
	engine.Narrator
	LoadingConnect() string
	LoadingDesign() string
	LoadingPaint(name string) string
	SetupFailed() string
}

// Phase is the session lifecycle around a battle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseFailed  Phase = "failed"
	PhaseBattle  Phase = "battle"
)

// View is an immutable snapshot handed to presentation layers.
type View struct {
	SessionID   string            `json:"session_id"`
	Phase       Phase             `json:"phase"`
	LoadingStep string            `json:"loading_step,omitempty"`
	Error       string            `json:"error,omitempty"`
	Battle      *game.BattleState `json:"battle,omitempty"`
	// Revision increases with every published change.
	Revision uint64 `json:"revision"`
}

// Options configures a Session. Setup is required.
type Options struct {
	Setup     SetupProvider
	Art       ArtProvider
	Narrator  Narrator
	Scheduler Scheduler
	// OpponentDelay is the pause between a player move and the opponent's
	// answer. Zero still defers the answer to the scheduler.
	OpponentDelay time.Duration
	// Rand overrides the per-session random source.
	Rand engine.RandomSource
	Now  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Narrator == nil {
		o.Narrator = narration.Default()
	}
	if o.Scheduler == nil {
		o.Scheduler = TimerScheduler{}
	}
	if o.OpponentDelay < 0 {
		o.OpponentDelay = 0
	}
	if o.Rand == nil {
		o.Rand = engine.NewRandomSource(time.Now().UnixNano())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session hosts at most one battle. The only commands are StartBattle and
// SelectMove; every resulting change is published to subscribers. All
// mutation happens under one mutex, so timer callbacks and requests are
// serialized.
type Session struct {
	id     string
	opts   Options
	eng    *engine.Engine
	tracer trace.Tracer

	mu          sync.Mutex
	generation  uint64
	revision    uint64
	phase       Phase
	step        string
	errMsg      string
	state       *game.BattleState
	cancelOpp   func() bool
	cancelStart context.CancelFunc
	subs        map[int]chan View
	nextSub     int
	lastActive  time.Time
	closed      bool
}

func NewSession(id string, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:         id,
		opts:       opts,
		eng:        engine.New(opts.Rand, opts.Narrator),
		tracer:     telemetry.Tracer("battle"),
		phase:      PhaseIdle,
		subs:       map[int]chan View{},
		lastActive: opts.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// StartBattle discards any current battle and builds a new one from fresh
// provider data. It blocks until the battle is ready or setup failed.
// Calling it again while a start is in flight supersedes the earlier call.
func (s *Session) StartBattle(ctx context.Context) (v View, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrClosed
	}
	s.generation++
	gen := s.generation
	s.stopPendingLocked()
	ctx, cancel := context.WithCancel(ctx)
	s.cancelStart = cancel
	s.state = nil
	s.errMsg = ""
	s.phase = PhaseLoading
	s.step = s.opts.Narrator.LoadingConnect()
	s.touchLocked()
	s.publishLocked()
	s.mu.Unlock()
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "battle.start", trace.WithAttributes(attribute.String(constants.LogFieldSessionID, s.id)))
	defer func() {
		if err != nil && !errors.Is(err, ErrSuperseded) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !s.setStep(gen, s.opts.Narrator.LoadingDesign()) {
		return s.View(), ErrSuperseded
	}
	setup, err := s.opts.Setup.FetchBattleSetup(ctx)
	if err != nil {
		return s.failStart(ctx, gen, err)
	}

	playerArt := s.fetchArt(ctx, gen, setup.Player)
	opponentArt := s.fetchArt(ctx, gen, setup.Opponent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return s.viewLocked(), ErrSuperseded
	}
	state := s.eng.Start(
		game.NewCreature(game.SidePlayer, setup.Player, playerArt),
		game.NewCreature(game.SideOpponent, setup.Opponent, opponentArt),
	)
	s.state = &state
	s.phase = PhaseBattle
	s.step = ""
	s.cancelStart = nil
	if state.Turn == game.SideOpponent {
		s.scheduleOpponentLocked(gen)
	}
	s.touchLocked()
	s.publishLocked()
	logging.Info("battle started", logging.Ctx(ctx, logging.Fields{
		constants.LogFieldSessionID: s.id,
		"player":                    state.Player.Name,
		"opponent":                  state.Opponent.Name,
		"first":                     string(state.Turn),
	}))
	return s.viewLocked(), nil
}

func (s *Session) fetchArt(ctx context.Context, gen uint64, t game.CreatureTemplate) string {
	if s.opts.Art == nil || !s.setStep(gen, s.opts.Narrator.LoadingPaint(t.Name)) {
		return ""
	}
	return s.opts.Art.FetchCreatureArt(ctx, t)
}

// setStep publishes a loading message. It reports false when the start
// identified by gen is no longer current.
func (s *Session) setStep(gen uint64, step string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.step = step
	s.publishLocked()
	return true
}

func (s *Session) failStart(ctx context.Context, gen uint64, cause error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return s.viewLocked(), ErrSuperseded
	}
	s.state = nil
	s.phase = PhaseFailed
	s.step = ""
	s.errMsg = s.opts.Narrator.SetupFailed()
	s.cancelStart = nil
	s.publishLocked()
	logging.Error("battle setup failed", cause, logging.Ctx(ctx, logging.Fields{constants.LogFieldSessionID: s.id}))
	return s.viewLocked(), &SetupError{Cause: cause}
}

// SelectMove plays the player's move at index. Moves outside the player's
// turn, or without a running battle, are ignored and return the current
// view. An out-of-range index returns engine.ErrInvalidMove.
func (s *Session) SelectMove(index int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.closed {
		return s.viewLocked(), ErrClosed
	}
	if s.state == nil {
		return s.viewLocked(), nil
	}

	_, span := s.tracer.Start(context.Background(), "battle.player_move", trace.WithAttributes(
		attribute.String(constants.LogFieldSessionID, s.id),
		attribute.Int("index", index),
	))
	defer span.End()

	next, err := s.eng.PlayerMove(*s.state, index)
	if errors.Is(err, engine.ErrIllegalAction) {
		return s.viewLocked(), nil
	}
	if err != nil {
		span.RecordError(err)
		return s.viewLocked(), err
	}
	s.state = &next
	logging.Info("player move", logging.Fields{
		constants.LogFieldSessionID: s.id,
		constants.LogFieldMove:      next.Player.Moves[index].Name,
		constants.LogFieldStatus:    string(next.Status),
	})
	if !next.Terminal() {
		s.scheduleOpponentLocked(s.generation)
	}
	s.publishLocked()
	return s.viewLocked(), nil
}

func (s *Session) scheduleOpponentLocked(gen uint64) {
	s.cancelOpp = s.opts.Scheduler.AfterFunc(s.opts.OpponentDelay, func() {
		s.opponentTurn(gen)
	})
}

// opponentTurn is the scheduled task. It re-checks that its battle is still
// current and waiting on the opponent before acting.
func (s *Session) opponentTurn(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation || s.state == nil ||
		s.state.Status != game.StatusBattle || s.state.Turn != game.SideOpponent {
		return
	}
	s.cancelOpp = nil

	_, span := s.tracer.Start(context.Background(), "battle.opponent_turn", trace.WithAttributes(attribute.String(constants.LogFieldSessionID, s.id)))
	defer span.End()

	next, err := s.eng.OpponentTurn(*s.state)
	if err != nil {
		span.RecordError(err)
		logging.Error("opponent turn failed", err, logging.Fields{constants.LogFieldSessionID: s.id})
		return
	}
	s.state = &next
	logging.Info("opponent move", logging.Fields{
		constants.LogFieldSessionID: s.id,
		constants.LogFieldStatus:    string(next.Status),
	})
	s.publishLocked()
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		SessionID:   s.id,
		Phase:       s.phase,
		LoadingStep: s.step,
		Error:       s.errMsg,
		Revision:    s.revision,
	}
	if s.state != nil {
		st := s.state.Clone()
		v.Battle = &st
	}
	return v
}

// Subscribe streams a view after every change, starting with the current
// one. Slow subscribers only miss intermediate views, never the latest.
// The channel is closed by cancel or when the session closes.
func (s *Session) Subscribe() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan View, 8)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.viewLocked()
	s.touchLocked()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
				s.touchLocked()
			}
		})
	}
}

func (s *Session) publishLocked() {
	s.revision++
	v := s.viewLocked()
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Drop the oldest queued view to make room for the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func (s *Session) stopPendingLocked() {
	if s.cancelOpp != nil {
		s.cancelOpp()
		s.cancelOpp = nil
	}
	if s.cancelStart != nil {
		s.cancelStart()
		s.cancelStart = nil
	}
}

func (s *Session) touchLocked() { s.lastActive = s.opts.Now() }

// LastActive is the time of the last command or subscription change. A
// session with an open subscription is active now.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return s.opts.Now()
	}
	return s.lastActive
}

// Close cancels pending work and ends all subscriptions. Later commands
// return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.stopPendingLocked()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
