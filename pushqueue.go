package oioproxy

import (
	"context"
	"sync"
)

// PushQueue coalesces service registration pushes: a later PUSH for the
// same service key overwrites an earlier, still-undelivered one, and a
// background drain delivers the whole accumulated batch to the
// conscience in one call (spec §4.7). Grounded in the teacher's
// requestDedup (request-dedup.go), which also kept a mutex-guarded map
// keyed by a derived request key to collapse concurrent duplicates; this
// queue collapses writes instead of reads, so there is no inflight/done
// channel to wait on, only a last-write-wins map drained on a timer.
type PushQueue struct {
	conscience ConscienceClient

	mu      sync.Mutex
	pending map[string]ServiceDescriptor

	pushed  *expvarIntCounter
	dropped *expvarIntCounter
}

// expvarIntCounter is the minimal counter seam PushQueue needs; getVarInt
// already returns the concrete *expvar.Int type satisfying it.
type expvarIntCounter interface {
	Add(int64)
}

func NewPushQueue(id string, conscience ConscienceClient) *PushQueue {
	return &PushQueue{
		conscience: conscience,
		pending:    make(map[string]ServiceDescriptor),
		pushed:     getVarInt("pushqueue", id, "pushed"),
		dropped:    getVarInt("pushqueue", id, "coalesced"),
	}
}

// Push enqueues desc, overwriting any not-yet-drained entry for the same
// key (spec §4.7: "last write for a given key wins; earlier undelivered
// writes for that key are discarded").
func (q *PushQueue) Push(desc ServiceDescriptor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.pending[desc.Key()]; exists {
		q.dropped.Add(1)
	}
	q.pending[desc.Key()] = desc
}

// Len reports the number of entries currently pending drain.
func (q *PushQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain atomically swaps the pending map for a fresh one and pushes the
// swapped-out batch to the conscience in a single call, so a Push
// arriving mid-drain lands in the new map rather than racing the RPC
// (spec §4.7: "drain swaps the container rather than draining it
// element by element, so producers never block behind a slow RPC").
func (q *PushQueue) Drain(ctx context.Context) error {
	q.mu.Lock()
	batch := q.pending
	q.pending = make(map[string]ServiceDescriptor)
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	services := make([]ServiceDescriptor, 0, len(batch))
	for _, desc := range batch {
		services = append(services, desc)
	}
	if err := q.conscience.PushServices(ctx, services); err != nil {
		return TransportError("conscience-push", err)
	}
	q.pushed.Add(int64(len(services)))
	return nil
}
