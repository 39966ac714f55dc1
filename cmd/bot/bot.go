package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

var (
	ErrOpponentLeft = errors.New("opponent left the game")
	ErrRejected     = errors.New("server rejected request")
)

// frame is one message received from the server.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Tally counts finished games from the bot's point of view.
type Tally struct {
	Wins   int
	Losses int
	Draws  int
}

// Played returns the number of finished games.
func (t Tally) Played() int {
	return t.Wins + t.Losses + t.Draws
}

func (t Tally) String() string {
	return fmt.Sprintf("%d played: %d won, %d lost, %d drawn", t.Played(), t.Wins, t.Losses, t.Draws)
}

// Options configures a bot.
type Options struct {
	// Room joins an existing room. When empty the bot creates one.
	Room       string
	Symbol     engine.Symbol
	GameMode   service.Mode
	Difficulty engine.Difficulty
	// Strength is the engine tier the bot itself plays with.
	Strength engine.Difficulty
	Games    int
	Token    string
	Delay    time.Duration
	// OnRoom is called with the room code once the bot is seated.
	OnRoom func(code string)
}

// Bot is a WebSocket game client that plays with the local engine.
type Bot struct {
	conn   *websocket.Conn
	id     string
	opts   Options
	rng    engine.Rand
	log    *zap.Logger
	room   string
	lastAt int
	tally  Tally
}

// Dial connects to the game socket at wsURL and waits for the connection ID.
func Dial(ctx context.Context, wsURL string, opts Options, log *zap.Logger) (*Bot, error) {
	if opts.Token != "" {
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		q.Set("token", opts.Token)
		u.RawQuery = q.Encode()
		wsURL = u.String()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial %s: token rejected", wsURL)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	b := &Bot{conn: conn, opts: opts, rng: engine.NewRand(), log: log, lastAt: -1}
	if b.opts.Games <= 0 {
		b.opts.Games = 1
	}

	f, err := b.read(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	var connected struct {
		ConnectionID string `json:"connectionId"`
	}
	if f.Type != "connected" || json.Unmarshal(f.Data, &connected) != nil {
		conn.Close()
		return nil, fmt.Errorf("unexpected first frame %q", f.Type)
	}
	b.id = connected.ConnectionID
	return b, nil
}

// Close closes the connection.
func (b *Bot) Close() error {
	return b.conn.Close()
}

// Play seats the bot and plays until the requested number of games is over.
func (b *Bot) Play(ctx context.Context) (Tally, error) {
	if b.opts.Room != "" {
		if err := b.send("joinGame", service.JoinRequest{RoomCode: b.opts.Room}); err != nil {
			return b.tally, err
		}
	} else {
		req := service.CreateRequest{
			Symbol:     string(b.opts.Symbol),
			GameMode:   string(b.opts.GameMode),
			Difficulty: string(b.opts.Difficulty),
		}
		if err := b.send("createGame", req); err != nil {
			return b.tally, err
		}
	}

	for {
		f, err := b.read(ctx)
		if err != nil {
			return b.tally, err
		}

		switch f.Type {
		case service.EventGameCreated:
			var created service.GameCreated
			if err := json.Unmarshal(f.Data, &created); err != nil {
				return b.tally, err
			}
			if err := b.onState(ctx, created.State); err != nil {
				return b.tally, err
			}

		case service.EventGameUpdate:
			var update service.StateUpdate
			if err := json.Unmarshal(f.Data, &update); err != nil {
				return b.tally, err
			}
			if err := b.onState(ctx, update.State); err != nil {
				return b.tally, err
			}

		case service.EventGameOver:
			var update service.StateUpdate
			if err := json.Unmarshal(f.Data, &update); err != nil {
				return b.tally, err
			}
			b.record(update.State)
			if b.tally.Played() >= b.opts.Games {
				return b.tally, nil
			}
			if err := b.send("requestRematch", service.RematchRequest{RoomCode: b.room}); err != nil {
				return b.tally, err
			}

		case service.EventPlayerLeft:
			return b.tally, ErrOpponentLeft

		case service.EventError:
			var notice service.Notice
			_ = json.Unmarshal(f.Data, &notice)
			return b.tally, fmt.Errorf("%w: %s", ErrRejected, notice.Message)
		}
	}
}

func (b *Bot) onState(ctx context.Context, state *service.GameState) error {
	if state == nil {
		return nil
	}
	if b.room == "" {
		b.room = state.RoomCode
		b.log.Info("seated", zap.String("room", b.room), zap.String("conn", b.id))
		if b.opts.OnRoom != nil {
			b.opts.OnRoom(b.room)
		}
	}

	me := b.symbol(state)
	if state.Status != service.StatusInProgress || state.CurrentTurn != me || state.MoveCount == b.lastAt {
		return nil
	}

	idx, ok := engine.ChooseMove(b.opts.Strength, state.Board, me, me.Opponent(), b.rng)
	if !ok {
		return nil
	}
	if b.opts.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.opts.Delay):
		}
	}
	b.lastAt = state.MoveCount
	b.log.Debug("move", zap.String("room", b.room), zap.Int("cell", idx), zap.String("board", state.Board.String()))
	return b.send("makeMove", service.MoveRequest{RoomCode: b.room, CellIndex: idx, Symbol: string(me)})
}

func (b *Bot) record(state *service.GameState) {
	b.lastAt = -1
	switch state.Outcome {
	case service.OutcomeDraw:
		b.tally.Draws++
	case service.Outcome(b.symbol(state)):
		b.tally.Wins++
	default:
		b.tally.Losses++
	}
	b.log.Info("game over",
		zap.String("room", b.room),
		zap.String("outcome", string(state.Outcome)),
		zap.String("board", state.Board.String()))
}

func (b *Bot) symbol(state *service.GameState) engine.Symbol {
	for _, p := range state.Players {
		if p.ConnID == b.id {
			return p.Symbol
		}
	}
	return engine.Empty
}

func (b *Bot) send(eventType string, data interface{}) error {
	return b.conn.WriteJSON(outFrame{Type: eventType, Data: data})
}

func (b *Bot) read(ctx context.Context) (frame, error) {
	var f frame
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.conn.SetReadDeadline(deadline); err != nil {
			return f, err
		}
	}
	if err := b.conn.ReadJSON(&f); err != nil {
		return f, fmt.Errorf("read: %w", err)
	}
	return f, nil
}
