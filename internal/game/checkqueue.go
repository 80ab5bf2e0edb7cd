package game

import "sync"

// Verdict is the dealer's answer to a check request.
type Verdict int

const (
	// VerdictLegal means the group was a set and the player scores.
	VerdictLegal Verdict = iota
	// VerdictIllegal means the group was not a set and the player is penalised.
	VerdictIllegal
	// VerdictVoid means the request lost a race (a card under one of the
	// player's markers left the table) or the round ended first.
	VerdictVoid
)

func (v Verdict) String() string {
	switch v {
	case VerdictLegal:
		return "legal"
	case VerdictIllegal:
		return "illegal"
	case VerdictVoid:
		return "void"
	default:
		return "unknown"
	}
}

// checkQueue holds the ids of players waiting for a verdict, oldest first.
// Only the dealer pops.
type checkQueue struct {
	mu   sync.Mutex
	ids  []int
	wake chan struct{}
}

func newCheckQueue() *checkQueue {
	return &checkQueue{wake: make(chan struct{}, 1)}
}

// Submit enqueues player and wakes the dealer. Both happen under the queue
// lock so the dealer cannot miss a request between checking and sleeping.
func (q *checkQueue) Submit(player int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, player)
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes the oldest request.
func (q *checkQueue) Pop() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return 0, false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, true
}

func (q *checkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Drain empties the queue and returns what was in it.
func (q *checkQueue) Drain() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := q.ids
	q.ids = nil
	return ids
}

// Wake fires after a Submit. A single pending signal may stand for several
// submissions.
func (q *checkQueue) Wake() <-chan struct{} {
	return q.wake
}
