// Package service provides the session state machine for the tic-tac-toe server.
//
// The service package implements:
//   - Room creation in two-player and versus-AI modes
//   - Joining, move validation and turn alternation
//   - Win and draw detection through the engine package
//   - Deferred AI replies
//   - Rematch voting and in-place board reset
//   - Teardown when a member disconnects
//
// Core Interfaces:
//
// GameService is the main service interface. Every method handles a single
// client event to completion, including the messages it broadcasts.
// SessionManager stores live sessions by room code. Notifier delivers a
// Message to one connection. Scheduler runs the AI continuation after a delay,
// and ResultRecorder receives per-account tallies when a game ends.
//
// Architecture:
//
// The service sits between the websocket transport and the engine. It owns no
// sockets. Outbound traffic goes through Notifier, so the transport decides how
// frames are written. The AI reply is scheduled, not run inline. When the
// continuation fires it looks the room up again by code and session ID and
// does nothing if the room was closed, replaced or is no longer waiting on the
// AI.
//
// Usage:
//
//	sessions := session.NewManager()
//	svc := service.NewGameService(sessions, hub,
//		service.WithScheduler(hub),
//		service.WithLogger(logger))
//
//	state, err := svc.CreateGame(ctx, service.Conn{ID: connID},
//		service.CreateRequest{Symbol: "X", GameMode: "ai", Difficulty: "hard"})
//
// Invalid Events:
//
// Moves and rematch votes that are not legal right now are dropped without a
// reply and logged at debug level. Only CreateGame and JoinGame return errors
// meant for the client.
package service
