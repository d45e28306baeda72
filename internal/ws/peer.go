package ws

import "game_theory_arena/internal/game"

// Peer is one live connection as seen by the hub.
type Peer interface {
	// ConnID is unique per connection, a user reconnecting gets a new one.
	ConnID() string
	UserID() game.PlayerID
	Name() string
	// Deliver sends msg if the connection is still live and reports whether it was queued.
	// It must never block.
	Deliver(msg Message) bool
}
