package service

import (
	"sort"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
)

// Mode selects who the creator plays against.
type Mode string

const (
	ModeHuman Mode = "human"
	ModeAI    Mode = "ai"
)

// ParseMode normalizes client input. Anything other than "ai" is a two-human game.
func ParseMode(raw string) Mode {
	if strings.EqualFold(strings.TrimSpace(raw), string(ModeAI)) {
		return ModeAI
	}
	return ModeHuman
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Outcome is empty while a game is in progress, a symbol once someone has
// won, or "draw".
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeDraw Outcome = "draw"
)

// Conn identifies the connection an event arrived on. AccountID is set when
// the connection presented a valid account token.
type Conn struct {
	ID        string
	AccountID string
}

// Player is one seat in a session.
type Player struct {
	ConnID    string        `json:"id"`
	Symbol    engine.Symbol `json:"symbol"`
	AccountID string        `json:"-"`
}

// Session is the server-side record of one room. It is owned by the
// SessionManager and must only be touched while handling an event.
type Session struct {
	ID           string
	Code         string
	Board        engine.Board
	Players      []Player
	Mode         Mode
	Difficulty   engine.Difficulty
	CurrentTurn  engine.Symbol
	Outcome      Outcome
	Status       Status
	RematchVotes map[string]bool
	MoveCount    int
	CreatedAt    time.Time

	// Opening is the symbol that moves first in every round.
	Opening engine.Symbol
}

// Member returns the seat held by connID.
func (s *Session) Member(connID string) (Player, bool) {
	for _, p := range s.Players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return Player{}, false
}

// HasMember reports whether connID holds a seat in s.
func (s *Session) HasMember(connID string) bool {
	_, ok := s.Member(connID)
	return ok
}

// AISymbol returns the symbol played by the AI, or Empty in a two-human game.
func (s *Session) AISymbol() engine.Symbol {
	if s.Mode != ModeAI || len(s.Players) == 0 {
		return engine.Empty
	}
	return s.Players[0].Symbol.Opponent()
}

// aiToMove reports whether the AI owes the next move.
func (s *Session) aiToMove() bool {
	return s.Mode == ModeAI && s.Outcome == OutcomeNone && s.CurrentTurn == s.AISymbol()
}

// Snapshot copies the session into its wire representation.
func (s *Session) Snapshot() *GameState {
	players := make([]Player, len(s.Players))
	copy(players, s.Players)

	votes := make([]string, 0, len(s.RematchVotes))
	for id := range s.RematchVotes {
		votes = append(votes, id)
	}
	sort.Strings(votes)

	return &GameState{
		RoomCode:     s.Code,
		Board:        s.Board,
		Players:      players,
		GameMode:     s.Mode,
		Difficulty:   s.Difficulty,
		CurrentTurn:  s.CurrentTurn,
		Outcome:      s.Outcome,
		Status:       s.Status,
		RematchVotes: votes,
		MoveCount:    s.MoveCount,
		CreatedAt:    s.CreatedAt,
	}
}

// GameState is the state broadcast to clients.
type GameState struct {
	RoomCode     string            `json:"roomCode"`
	Board        engine.Board      `json:"board"`
	Players      []Player          `json:"players"`
	GameMode     Mode              `json:"gameMode"`
	Difficulty   engine.Difficulty `json:"difficulty,omitempty"`
	CurrentTurn  engine.Symbol     `json:"currentTurn"`
	Outcome      Outcome           `json:"outcome"`
	Status       Status            `json:"status"`
	RematchVotes []string          `json:"rematchVotes"`
	MoveCount    int               `json:"moveCount"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// RoomSummary is the listing view of a live session.
type RoomSummary struct {
	RoomCode    string    `json:"roomCode"`
	GameMode    Mode      `json:"gameMode"`
	Status      Status    `json:"status"`
	PlayerCount int       `json:"playerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRequest is the payload of a createGame event.
type CreateRequest struct {
	Symbol     string `mapstructure:"symbol" json:"symbol"`
	GameMode   string `mapstructure:"gameMode" json:"gameMode"`
	Difficulty string `mapstructure:"difficulty" json:"difficulty"`
}

// JoinRequest is the payload of a joinGame event.
type JoinRequest struct {
	RoomCode string `mapstructure:"roomCode" json:"roomCode"`
}

// MoveRequest is the payload of a makeMove event.
type MoveRequest struct {
	RoomCode  string `mapstructure:"roomCode" json:"roomCode"`
	CellIndex int    `mapstructure:"cellIndex" json:"cellIndex"`
	Symbol    string `mapstructure:"symbol" json:"symbol"`
}

// RematchRequest is the payload of a requestRematch event.
type RematchRequest struct {
	RoomCode string `mapstructure:"roomCode" json:"roomCode"`
}

// Outbound event kinds.
const (
	EventGameCreated  = "gameCreated"
	EventGameUpdate   = "gameUpdate"
	EventGameOver     = "gameOver"
	EventRematchOffer = "rematchOffer"
	EventPlayerLeft   = "playerLeft"
	EventError        = "error"
)

// Message is an outbound frame addressed to one connection.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// GameCreated is sent to the creator of a room.
type GameCreated struct {
	RoomCode string     `json:"roomCode"`
	State    *GameState `json:"state"`
}

// StateUpdate carries a gameUpdate or gameOver state.
type StateUpdate struct {
	State *GameState `json:"state"`
}

// RematchOffer announces a rematch vote.
type RematchOffer struct {
	Requester string `json:"requester"`
}

// Notice carries a human-readable message (playerLeft, error).
type Notice struct {
	Message string `json:"message"`
}

// Result is a per-account tally delta for one finished game.
type Result struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}
