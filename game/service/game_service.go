package service

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRoomUnavailable = errors.New("Game not found or is full.")
	ErrInvalidSymbol   = errors.New("symbol must be X or O")
	ErrAlreadySeated   = errors.New("connection already belongs to a game")
)

// GameService is the session state machine. Every method handles one event
// to completion, including its broadcasts.
type GameService interface {
	// Session lifecycle
	CreateGame(ctx context.Context, conn Conn, req CreateRequest) (*GameState, error)
	JoinGame(ctx context.Context, conn Conn, roomCode string) (*GameState, error)
	Leave(ctx context.Context, connID string) bool

	// Game operations. Invalid moves and rematch requests are ignored and
	// report false.
	MakeMove(ctx context.Context, connID string, req MoveRequest) bool
	RequestRematch(ctx context.Context, connID, roomCode string) bool

	// Inspection
	GetRoom(ctx context.Context, roomCode string) (*GameState, error)
	ListRooms(ctx context.Context) []*RoomSummary
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(sess *Session) (string, error)
	Get(code string) (*Session, error)
	Delete(code string) error
	FindByConnection(connID string) (*Session, bool)
	List() []*Session
	Count() int
}

// Notifier delivers a message to a single connection.
type Notifier interface {
	Send(connID string, msg Message)
}

// Scheduler runs fn once after d. Implementations must not block the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// ResultRecorder receives per-account results of finished games.
type ResultRecorder interface {
	RecordResult(ctx context.Context, accountID string, result Result) error
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
