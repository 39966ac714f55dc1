package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
	"github.com/wricardo/mcp-training/tictactoe/game/session"
	"github.com/wricardo/mcp-training/tictactoe/transport/websocket"
)

func newGameServer(t *testing.T) string {
	t.Helper()
	hub := websocket.NewHub()
	hub.SetGameService(service.NewGameService(session.NewManager(), hub,
		service.WithScheduler(hub),
		service.WithAIDelay(time.Millisecond),
	))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBot_AgainstServerAI(t *testing.T) {
	url := newGameServer(t)
	ctx := testContext(t)

	bot, err := Dial(ctx, url, Options{
		Symbol:     engine.X,
		GameMode:   service.ModeAI,
		Difficulty: engine.Easy,
		Strength:   engine.Hard,
		Games:      3,
	}, zap.NewNop())
	require.NoError(t, err)
	defer bot.Close()

	tally, err := bot.Play(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, tally.Played())
	assert.Zero(t, tally.Losses, "minimax never loses")
}

func TestBot_TwoBotsDraw(t *testing.T) {
	url := newGameServer(t)
	ctx := testContext(t)

	rooms := make(chan string, 1)
	host, err := Dial(ctx, url, Options{
		Symbol:   engine.O,
		GameMode: service.ModeHuman,
		Strength: engine.Hard,
		Games:    2,
		OnRoom:   func(code string) { rooms <- code },
	}, zap.NewNop())
	require.NoError(t, err)
	defer host.Close()

	type result struct {
		tally Tally
		err   error
	}
	hostDone := make(chan result, 1)
	go func() {
		tally, err := host.Play(ctx)
		hostDone <- result{tally, err}
	}()

	var code string
	select {
	case code = <-rooms:
	case <-ctx.Done():
		t.Fatal("host never received a room code")
	}

	guest, err := Dial(ctx, url, Options{Room: code, Strength: engine.Hard, Games: 2}, zap.NewNop())
	require.NoError(t, err)
	defer guest.Close()

	guestTally, err := guest.Play(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tally{Draws: 2}, guestTally)

	r := <-hostDone
	require.NoError(t, r.err)
	assert.Equal(t, Tally{Draws: 2}, r.tally)
}

func TestBot_JoinUnknownRoom(t *testing.T) {
	url := newGameServer(t)
	ctx := testContext(t)

	bot, err := Dial(ctx, url, Options{Room: "zzzzzz", Strength: engine.Hard}, zap.NewNop())
	require.NoError(t, err)
	defer bot.Close()

	_, err = bot.Play(ctx)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Game not found or is full.")
}

func TestBot_DelayStopsOnCancel(t *testing.T) {
	url := newGameServer(t)

	bot, err := Dial(testContext(t), url, Options{
		Symbol:   engine.X,
		GameMode: service.ModeAI,
		Strength: engine.Hard,
		Delay:    time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	defer bot.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = bot.Play(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBot_DialFailure(t *testing.T) {
	_, err := Dial(testContext(t), "ws://127.0.0.1:1/ws", Options{}, zap.NewNop())
	assert.Error(t, err)
}

func TestTally(t *testing.T) {
	tally := Tally{Wins: 2, Losses: 1, Draws: 3}
	assert.Equal(t, 6, tally.Played())
	assert.Equal(t, "6 played: 2 won, 1 lost, 3 drawn", tally.String())
}
