package service

import (
	"sync"

	"github.com/cmyser/lspcore/jsonrpc"
)

// cancelToken implements CancelToken with a close-once channel so Done()
// can be selected on and Cancelled() polled cheaply.
type cancelToken struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

func newCancelToken() *cancelToken {
	return &cancelToken{done: make(chan struct{})}
}

func (t *cancelToken) trip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cancelled {
		t.cancelled = true
		close(t.done)
	}
}

func (t *cancelToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *cancelToken) Done() <-chan struct{} { return t.done }

// inboundRegistry is the dispatcher-owned table of in-flight server-side
// handler tasks, spec.md §3 "Pending inbound entry" / §4.C (the inbound
// counterpart to the client handle's outbound registry). One entry per
// request carrying an id that is still being handled.
type inboundRegistry struct {
	mu      sync.Mutex
	entries map[jsonrpc.Id]*cancelToken
}

func newInboundRegistry() *inboundRegistry {
	return &inboundRegistry{entries: make(map[jsonrpc.Id]*cancelToken)}
}

func (r *inboundRegistry) insert(id jsonrpc.Id) *cancelToken {
	tok := newCancelToken()
	r.mu.Lock()
	r.entries[id] = tok
	r.mu.Unlock()
	return tok
}

func (r *inboundRegistry) remove(id jsonrpc.Id) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// cancel sets the cancel flag for id, if a handler is still in flight for
// it. Absence is not an error, spec.md §4.E — a cancel for a request that
// already produced a response (or was never seen) is silently discarded,
// spec.md §9 Open Question (b).
func (r *inboundRegistry) cancel(id jsonrpc.Id) {
	r.mu.Lock()
	tok, ok := r.entries[id]
	r.mu.Unlock()
	if ok {
		tok.trip()
	}
}

func (r *inboundRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
