package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
)

// DefaultAIDelay paces AI replies so they do not land in the same frame as
// the human move.
const DefaultAIDelay = 500 * time.Millisecond

// PlayerLeftMessage is sent to the remaining members when a room is abandoned.
const PlayerLeftMessage = "The other player has left the game."

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	notifier  Notifier
	scheduler Scheduler
	recorder  ResultRecorder
	rng       engine.Rand
	aiDelay   time.Duration
	log       *zap.Logger
	mu        sync.Mutex
}

// Option configures a GameService.
type Option func(*gameServiceImpl)

// WithScheduler sets the scheduler used for deferred AI turns.
func WithScheduler(s Scheduler) Option {
	return func(g *gameServiceImpl) { g.scheduler = s }
}

// WithRecorder reports finished games to r.
func WithRecorder(r ResultRecorder) Option {
	return func(g *gameServiceImpl) { g.recorder = r }
}

// WithRand sets the randomness source for the easy and medium AI.
func WithRand(r engine.Rand) Option {
	return func(g *gameServiceImpl) { g.rng = r }
}

// WithAIDelay overrides DefaultAIDelay.
func WithAIDelay(d time.Duration) Option {
	return func(g *gameServiceImpl) { g.aiDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *gameServiceImpl) { g.log = l }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, notifier Notifier, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		notifier:  notifier,
		scheduler: timerScheduler{},
		rng:       engine.NewRand(),
		aiDelay:   DefaultAIDelay,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame opens a room with the caller in the first seat.
func (s *gameServiceImpl) CreateGame(ctx context.Context, conn Conn, req CreateRequest) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol, err := engine.ParseSymbol(req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSymbol, err)
	}
	if _, seated := s.sessions.FindByConnection(conn.ID); seated {
		return nil, ErrAlreadySeated
	}

	mode := ParseMode(req.GameMode)
	sess := &Session{
		ID:           uuid.NewString(),
		Players:      []Player{{ConnID: conn.ID, Symbol: symbol, AccountID: conn.AccountID}},
		Mode:         mode,
		CurrentTurn:  symbol,
		Opening:      symbol,
		Status:       StatusWaiting,
		RematchVotes: make(map[string]bool),
		CreatedAt:    time.Now(),
	}
	if mode == ModeAI {
		sess.Difficulty = engine.ParseDifficulty(req.Difficulty)
		sess.Status = StatusInProgress
	}

	code, err := s.sessions.Create(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	state := sess.Snapshot()
	s.log.Info("game created",
		zap.String("room", code),
		zap.String("conn", conn.ID),
		zap.String("mode", string(mode)),
		zap.String("difficulty", string(sess.Difficulty)))
	s.notifier.Send(conn.ID, Message{Type: EventGameCreated, Data: GameCreated{RoomCode: code, State: state}})
	return state, nil
}

// JoinGame seats the caller opposite the creator.
func (s *gameServiceImpl) JoinGame(ctx context.Context, conn Conn, roomCode string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(roomCode)
	if err != nil || sess.Mode == ModeAI || len(sess.Players) >= 2 {
		return nil, ErrRoomUnavailable
	}
	if _, seated := s.sessions.FindByConnection(conn.ID); seated {
		return nil, ErrAlreadySeated
	}

	sess.Players = append(sess.Players, Player{
		ConnID:    conn.ID,
		Symbol:    sess.Players[0].Symbol.Opponent(),
		AccountID: conn.AccountID,
	})
	sess.Status = StatusInProgress

	s.log.Info("player joined", zap.String("room", sess.Code), zap.String("conn", conn.ID))
	state := sess.Snapshot()
	s.broadcast(sess, Message{Type: EventGameUpdate, Data: StateUpdate{State: state}})
	return state, nil
}

// MakeMove applies a human move. Anything that is not a legal move for the
// caller right now is dropped without a reply.
func (s *gameServiceImpl) MakeMove(ctx context.Context, connID string, req MoveRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(req.RoomCode)
	if err != nil {
		s.ignored("move", req.RoomCode, connID, "room not found")
		return false
	}
	player, ok := sess.Member(connID)
	switch {
	case !ok:
		s.ignored("move", sess.Code, connID, "not a member")
		return false
	case sess.Outcome != OutcomeNone:
		s.ignored("move", sess.Code, connID, "game finished")
		return false
	case sess.Status != StatusInProgress:
		s.ignored("move", sess.Code, connID, "waiting for opponent")
		return false
	case !engine.InRange(req.CellIndex):
		s.ignored("move", sess.Code, connID, "cell out of range")
		return false
	case sess.Board[req.CellIndex] != engine.Empty:
		s.ignored("move", sess.Code, connID, "cell occupied")
		return false
	case engine.Symbol(req.Symbol) != sess.CurrentTurn || player.Symbol != sess.CurrentTurn:
		s.ignored("move", sess.Code, connID, "not your turn")
		return false
	}

	s.apply(ctx, sess, req.CellIndex, sess.CurrentTurn)
	return true
}

// apply writes one accepted move and advances the session.
func (s *gameServiceImpl) apply(ctx context.Context, sess *Session, idx int, symbol engine.Symbol) {
	sess.Board[idx] = symbol
	sess.MoveCount++

	if w := engine.Winner(sess.Board); w != engine.Empty {
		s.finish(ctx, sess, Outcome(w))
		return
	}
	if sess.Board.Full() {
		s.finish(ctx, sess, OutcomeDraw)
		return
	}

	sess.CurrentTurn = symbol.Opponent()
	s.broadcast(sess, Message{Type: EventGameUpdate, Data: StateUpdate{State: sess.Snapshot()}})

	if sess.aiToMove() {
		s.scheduleAI(sess)
	}
}

func (s *gameServiceImpl) finish(ctx context.Context, sess *Session, outcome Outcome) {
	sess.Outcome = outcome
	sess.Status = StatusFinished

	s.log.Info("game over",
		zap.String("room", sess.Code),
		zap.String("outcome", string(outcome)),
		zap.Int("moves", sess.MoveCount))
	s.broadcast(sess, Message{Type: EventGameOver, Data: StateUpdate{State: sess.Snapshot()}})
	s.recordResults(ctx, sess)
}

// scheduleAI defers the AI reply. The continuation looks the room up again
// and does nothing if it is gone, replaced, or no longer waiting on the AI.
func (s *gameServiceImpl) scheduleAI(sess *Session) {
	code, id := sess.Code, sess.ID
	s.scheduler.AfterFunc(s.aiDelay, func() {
		s.playAI(code, id)
	})
}

func (s *gameServiceImpl) playAI(code, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(code)
	if err != nil || sess.ID != sessionID {
		s.log.Debug("AI turn dropped", zap.String("room", code), zap.String("reason", "room closed"))
		return
	}
	if !sess.aiToMove() {
		s.log.Debug("AI turn dropped", zap.String("room", code), zap.String("reason", "not AI turn"))
		return
	}

	ai := sess.AISymbol()
	idx, ok := engine.ChooseMove(sess.Difficulty, sess.Board, ai, ai.Opponent(), s.rng)
	if !ok {
		s.log.Error("AI found no move on a live board",
			zap.String("room", code), zap.String("board", sess.Board.String()))
		return
	}
	if err := engine.CheckMove(sess.Board, idx); err != nil {
		s.log.Error("AI chose an illegal cell",
			zap.String("room", code), zap.String("board", sess.Board.String()), zap.Error(err))
		return
	}

	s.apply(context.Background(), sess, idx, ai)
}

// RequestRematch records a vote on a finished game and resets the board in
// place once every human member has voted.
func (s *gameServiceImpl) RequestRematch(ctx context.Context, connID, roomCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(roomCode)
	if err != nil {
		s.ignored("rematch", roomCode, connID, "room not found")
		return false
	}
	if !sess.HasMember(connID) {
		s.ignored("rematch", sess.Code, connID, "not a member")
		return false
	}
	if sess.Outcome == OutcomeNone {
		s.ignored("rematch", sess.Code, connID, "game in progress")
		return false
	}

	sess.RematchVotes[connID] = true
	s.broadcast(sess, Message{Type: EventRematchOffer, Data: RematchOffer{Requester: connID}})

	for _, p := range sess.Players {
		if !sess.RematchVotes[p.ConnID] {
			return true
		}
	}
	s.reset(sess)
	return true
}

func (s *gameServiceImpl) reset(sess *Session) {
	sess.Board = engine.Board{}
	sess.Outcome = OutcomeNone
	sess.Status = StatusInProgress
	sess.MoveCount = 0
	sess.RematchVotes = make(map[string]bool)

	if sess.Mode == ModeHuman && len(sess.Players) == 2 {
		sess.Players[0].Symbol, sess.Players[1].Symbol = sess.Players[1].Symbol, sess.Players[0].Symbol
	}
	sess.CurrentTurn = sess.Opening

	s.log.Info("rematch started", zap.String("room", sess.Code))
	s.broadcast(sess, Message{Type: EventGameUpdate, Data: StateUpdate{State: sess.Snapshot()}})
}

// Leave tears down the room the connection belongs to, if any.
func (s *gameServiceImpl) Leave(ctx context.Context, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.FindByConnection(connID)
	if !ok {
		return false
	}

	notice := Message{Type: EventPlayerLeft, Data: Notice{Message: PlayerLeftMessage}}
	for _, p := range sess.Players {
		if p.ConnID != connID {
			s.notifier.Send(p.ConnID, notice)
		}
	}

	if err := s.sessions.Delete(sess.Code); err != nil {
		s.log.Error("failed to delete abandoned room", zap.String("room", sess.Code), zap.Error(err))
		return false
	}
	s.log.Info("room abandoned", zap.String("room", sess.Code), zap.String("conn", connID))
	return true
}

// GetRoom returns a snapshot of a live room.
func (s *gameServiceImpl) GetRoom(ctx context.Context, roomCode string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(roomCode)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// ListRooms returns every live room, oldest first.
func (s *gameServiceImpl) ListRooms(ctx context.Context) []*RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	rooms := make([]*RoomSummary, 0, len(sessions))
	for _, sess := range sessions {
		rooms = append(rooms, &RoomSummary{
			RoomCode:    sess.Code,
			GameMode:    sess.Mode,
			Status:      sess.Status,
			PlayerCount: len(sess.Players),
			CreatedAt:   sess.CreatedAt,
		})
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

func (s *gameServiceImpl) broadcast(sess *Session, msg Message) {
	for _, p := range sess.Players {
		s.notifier.Send(p.ConnID, msg)
	}
}

func (s *gameServiceImpl) ignored(event, room, connID, reason string) {
	s.log.Debug("event ignored",
		zap.String("event", event),
		zap.String("room", room),
		zap.String("conn", connID),
		zap.String("reason", reason))
}

// recordResults hands per-account tallies to the recorder off the event path.
func (s *gameServiceImpl) recordResults(ctx context.Context, sess *Session) {
	if s.recorder == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, p := range sess.Players {
		if p.AccountID == "" {
			continue
		}
		var r Result
		switch {
		case sess.Outcome == OutcomeDraw:
			r.Draws = 1
		case sess.Outcome == Outcome(p.Symbol):
			r.Wins = 1
		default:
			r.Losses = 1
		}
		go func(accountID string, r Result) {
			if err := s.recorder.RecordResult(ctx, accountID, r); err != nil {
				s.log.Warn("failed to record result", zap.String("account", accountID), zap.Error(err))
			}
		}(p.AccountID, r)
	}
}
