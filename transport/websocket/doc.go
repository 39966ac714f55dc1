// Package websocket provides the real-time transport for the tic-tac-toe server.
//
// The websocket package implements:
//   - Connection upgrade with optional origin checks and token binding
//   - Per-connection read and write pumps with ping/pong keepalive
//   - Decoding of inbound event envelopes
//   - Delivery of outbound game messages
//
// Architecture:
//
// A central Hub owns every connection and runs a single event loop. Register,
// unregister, inbound frames and delayed AI turns are all handled there one
// at a time, so game handlers never race each other. The Hub is handed to the
// game service twice: as its Notifier, to deliver messages, and as its
// Scheduler, so AI continuations are queued back onto the loop.
//
// Message Protocol:
//
// Every frame is JSON with a type and a data object:
//
//	{"type": "makeMove", "data": {"roomCode": "k3x9qa", "cellIndex": 4, "symbol": "X"}}
//
// Inbound types are createGame, joinGame, makeMove and requestRematch.
// Payloads are decoded with mapstructure. Outbound types are connected,
// gameCreated, gameUpdate, gameOver, rematchOffer, playerLeft and error.
// Malformed frames, unknown types and rejected create/join requests produce an
// error frame for the sender only. Illegal moves get no reply.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	svc := service.NewGameService(session.NewManager(), hub, service.WithScheduler(hub))
//	hub.SetGameService(svc)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects, optionally with ?token=<jwt>
// 2. Hub assigns a connection ID and sends a connected frame
// 3. Client sends events and receives game messages
// 4. Disconnection tears down the client's room and notifies the other player
package websocket
