// Package event delivers ranking-changed notifications to real-time
// consumers. Publishing is fire-and-forget: listeners run on a shared
// goroutine pool and can never block or fail the mutation path.
package event

import "time"

// RankingChanged is emitted after every successful score mutation.
type RankingChanged struct {
	MemberID   string    `json:"member_id"`
	NewScore   int64     `json:"new_score"`
	NewRank    int64     `json:"new_rank"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Listener consumes ranking-changed events.
// Listeners run concurrently on the dispatcher pool; a panic is recovered
// and logged, never propagated.
type Listener interface {
	OnRankingChanged(ev RankingChanged)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ev RankingChanged)

func (f ListenerFunc) OnRankingChanged(ev RankingChanged) {
	f(ev)
}
