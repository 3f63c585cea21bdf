// Package realtime fans vote activity out to live result viewers. Vote
// inserts publish a VoteEvent; each results stream subscribes to its
// election's channel, coalesces bursts, and re-tallies per flush.
package realtime

import (
	"context"
	"sync"
)

// VoteEvent announces that a vote was accepted into the ledger. It is a
// notification, not a delta: consumers re-fetch authoritative counts
// rather than incrementing local state.
type VoteEvent struct {
	ElectionID int `json:"election_id"`
	OptionID   int `json:"option_id"`
}

// Broker is the pub/sub channel between the vote ledger and live result
// viewers. The Redis implementation is used in production so events cross
// process boundaries; the in-memory one serves single-process runs and
// tests.
type Broker interface {
	Publish(ctx context.Context, event VoteEvent) error
	// Subscribe returns a stream of events for one election plus a
	// cancel function that must be called when the viewer goes away.
	Subscribe(ctx context.Context, electionID int) (<-chan VoteEvent, func(), error)
}

// MemoryBroker delivers events to subscribers within the same process.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[int]map[chan VoteEvent]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[int]map[chan VoteEvent]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, event VoteEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[event.ElectionID] {
		select {
		case ch <- event:
		default:
			// Slow subscriber; drop rather than block the ledger. The
			// next event it does receive triggers a full re-tally anyway.
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, electionID int) (<-chan VoteEvent, func(), error) {
	ch := make(chan VoteEvent, 64)

	b.mu.Lock()
	if b.subs[electionID] == nil {
		b.subs[electionID] = make(map[chan VoteEvent]struct{})
	}
	b.subs[electionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[electionID], ch)
			if len(b.subs[electionID]) == 0 {
				delete(b.subs, electionID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel, nil
}
