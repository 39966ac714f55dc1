// Package session provides in-memory room storage for the tic-tac-toe server.
//
// Manager implements service.SessionManager. It maps room codes to live
// sessions behind a read/write mutex and allocates codes when a room is
// created.
//
// Room Codes:
//
// Codes are six lowercase base-36 characters drawn from crypto/rand. Lookups
// are case-insensitive. A freshly drawn code that is already live is discarded
// and redrawn; after a bounded number of attempts Create fails with
// ErrCodeSpaceExhausted. Once a room is deleted its code may be handed out
// again, so holders of stale references must compare the session ID.
//
// Usage:
//
//	manager := session.NewManager()
//
//	code, err := manager.Create(sess)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(code)
//
// Sessions are not persisted. Restarting the process drops every room.
package session
