// Package api provides the HTTP surface of the tic-tac-toe server.
//
// Routes:
//
//	GET  /health               liveness with room and connection counts
//	GET  /api/rooms            live rooms
//	GET  /api/rooms/{code}     full state of one room
//	POST /api/analyze          run the AI on an arbitrary board
//	POST /api/auth/register    create an account, returns a token
//	POST /api/auth/login       exchange credentials for a token
//	GET  /api/game/stats       the caller's record (Bearer token)
//	PUT  /api/game/stats       add a result to the caller's record (Bearer token)
//	GET  /ws                   WebSocket upgrade, handled by the hub
//
// The auth and stats routes are only mounted when an Accounts implementation
// is supplied with WithAccounts. Errors are JSON objects of the form
// {"error": "..."}.
//
// Usage:
//
//	srv := api.NewServer(gameService, hub,
//		api.WithAccounts(accounts),
//		api.WithAllowedOrigins(cfg.AllowedOrigins))
//	http.ListenAndServe(":5000", srv)
package api
