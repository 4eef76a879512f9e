// Package pending implements the outbound pending-request registry of
// spec.md §4.C: correlating ids chosen by the client handle to the
// one-shot waiters that will receive the peer's Response.
package pending

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
	"github.com/cmyser/lspcore/jsonrpc"
)

// Waiter is the one-shot sink a caller blocks on for a single outbound
// request's Response.
type Waiter struct {
	ch chan jsonrpc.Response
}

// Wait blocks until the registry delivers a Response (via Complete or a
// synthetic cancellation via Cancel).
func (w *Waiter) Wait() jsonrpc.Response {
	return <-w.ch
}

// Chan exposes the channel directly so callers can select on it alongside
// context cancellation.
func (w *Waiter) Chan() <-chan jsonrpc.Response {
	return w.ch
}

type entry struct {
	waiter *Waiter
}

// Registry maps outbound Id -> Waiter. One entry per outstanding
// server→client request; destroyed when the response arrives or Cancel is
// called. The registry is the hot structure named in spec.md §9
// ("Concurrent map vs locked map") — a single mutex-protected map is used
// here rather than a sharded map or a third-party concurrent map, see
// DESIGN.md.
type Registry struct {
	mu      sync.Mutex
	entries map[jsonrpc.Id]entry
	log     zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[jsonrpc.Id]entry),
		log:     xio.Scoped(log, "pending"),
	}
}

// Register allocates a Waiter for id. Callers register id before enqueuing
// the outbound Request, so a Response for id never arrives before its
// Waiter exists.
func (r *Registry) Register(id jsonrpc.Id) *Waiter {
	w := &Waiter{ch: make(chan jsonrpc.Response, 1)}
	r.mu.Lock()
	r.entries[id] = entry{waiter: w}
	r.mu.Unlock()
	return w
}

// Complete delivers resp to the waiter registered for resp.ID. Completing
// an unknown id is logged and dropped, per spec.md §4.C.
func (r *Registry) Complete(resp jsonrpc.Response) {
	r.mu.Lock()
	e, ok := r.entries[resp.ID]
	if ok {
		delete(r.entries, resp.ID)
	}
	r.mu.Unlock()

	if !ok {
		r.log.Debug().Stringer("id", resp.ID).Msg("response for unknown or already-resolved id, dropping")
		return
	}
	e.waiter.ch <- resp
}

// Cancel removes the entry for id, if present, and delivers a synthetic
// RequestCancelled error to its waiter. Returns true if an entry was
// found. Callers (lspclient) are responsible for then emitting the
// $/cancelRequest notification onto the outbound stream.
func (r *Registry) Cancel(id jsonrpc.Id) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.waiter.ch <- jsonrpc.NewErrorResponse(id, jsonrpc.ErrRequestCancelled())
	return true
}

// Forget removes the entry for id without delivering anything to its
// waiter. Unlike Cancel, it produces no synthetic RequestCancelled
// response.
func (r *Registry) Forget(id jsonrpc.Id) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len reports the number of in-flight outbound requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
