package ws

import "game_theory_arena/internal/game"

// Queue holds at most one waiting peer per game mode.
// Not safe for concurrent use, the hub loop owns it.
type Queue struct {
	slots map[game.Mode]Peer
}

func NewQueue() *Queue {
	return &Queue{slots: make(map[game.Mode]Peer)}
}

// EnqueueOrPair consumes the waiting peer for mode when it belongs to another
// connection and another user, and returns it. Otherwise p takes the slot.
func (q *Queue) EnqueueOrPair(mode game.Mode, p Peer) (Peer, bool) {
	if w, ok := q.slots[mode]; ok && w.ConnID() != p.ConnID() && w.UserID() != p.UserID() {
		delete(q.slots, mode)
		return w, true
	}
	q.slots[mode] = p
	return nil, false
}

// Remove clears every slot owned by connID and returns the affected modes.
func (q *Queue) Remove(connID string) []game.Mode {
	var modes []game.Mode
	for mode, w := range q.slots {
		if w.ConnID() == connID {
			delete(q.slots, mode)
			modes = append(modes, mode)
		}
	}
	return modes
}

func (q *Queue) Waiting(mode game.Mode) (Peer, bool) {
	p, ok := q.slots[mode]
	return p, ok
}

func (q *Queue) Len() int {
	return len(q.slots)
}
