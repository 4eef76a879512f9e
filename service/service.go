// Package service implements the LSP dispatcher of spec.md §4.E: routing
// inbound JSON-RPC messages to handler methods, enforcing the lifecycle
// FSM of §3, and managing per-request cancellation.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/cmyser/lspcore/internal/xio"
	"github.com/cmyser/lspcore/jsonrpc"
	"github.com/cmyser/lspcore/lspclient"
)

// Option configures an LspService at construction time.
type Option func(*LspService)

// WithSingleThreaded serializes request handler invocations behind a
// weight-1 semaphore, the "opt into a single-threaded policy" escape hatch
// named in spec.md §4.E. The default policy runs request handlers
// concurrently. Notification handlers do not take the semaphore: they run
// one at a time on the notification worker, which may overlap a request
// handler.
func WithSingleThreaded() Option {
	return func(s *LspService) {
		s.sem = semaphore.NewWeighted(1)
	}
}

// WithMaxConcurrentHandlers bounds the number of handler goroutines in
// flight at once; 0 (the default) means unbounded.
func WithMaxConcurrentHandlers(n int64) Option {
	return func(s *LspService) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(n)
		}
	}
}

// LspService is the dispatcher of spec.md §4.E. It owns the inbound
// pending registry exclusively (spec.md §3 "Ownership") and holds a
// Handler built by the user-supplied Factory.
type LspService struct {
	handler   Handler
	lifecycle *lifecycle
	inbound   *inboundRegistry
	sem       *semaphore.Weighted
	custom    map[string]CustomHandlerFunc
	sessionID string
	log       zerolog.Logger

	// notifyQueue serializes notification handler execution in receive
	// order (spec.md §5 "Ordering" (b)) without blocking the dispatch loop
	// that feeds it: Call() enqueues and returns immediately; a single
	// background worker drains the queue in order.
	notifyQueue chan func()
}

// CustomHandlerFunc answers a custom, non-LSP method registered via
// RegisterCustomMethod, SPEC_FULL.md §5 "Custom request registration".
type CustomHandlerFunc func(ctx context.Context, raw json.RawMessage) (interface{}, error)

// responseSink is the subset of pending.Registry the dispatcher needs in
// order to forward Responses to — kept as an interface so service does not
// import the concrete outbound registry type. The dispatcher never owns
// this registry, only this narrow capability (spec.md §3 "Ownership").
type responseSink interface {
	Complete(jsonrpc.Response)
}

func New(factory Factory, client *lspclient.Client, log zerolog.Logger, opts ...Option) *LspService {
	sessionID := uuid.NewString()
	s := &LspService{
		lifecycle:   newLifecycle(),
		inbound:     newInboundRegistry(),
		custom:      make(map[string]CustomHandlerFunc),
		sessionID:   sessionID,
		log:         xio.Scoped(log, "service").With().Str("session_id", sessionID).Logger(),
		notifyQueue: make(chan func(), 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = factory(client)
	go s.runNotifyWorker()
	return s
}

func (s *LspService) runNotifyWorker() {
	for fn := range s.notifyQueue {
		fn()
	}
}

func (s *LspService) enqueueNotification(fn func()) {
	s.notifyQueue <- fn
}

// RegisterCustomMethod wires an additional JSON-RPC method into the
// dispatcher that is not part of the fixed LSP Handler surface,
// SPEC_FULL.md §5. This is an explicit, single call per method — it does
// not reopen the Non-goal against reflection-based handler discovery.
func (s *LspService) RegisterCustomMethod(name string, fn CustomHandlerFunc) {
	s.custom[name] = fn
}

// State reports the current lifecycle state; used by lspserver to decide
// when it is safe to terminate.
func (s *LspService) State() State { return s.lifecycle.get() }

// InFlight reports the number of inbound requests whose handlers are still
// running with a cancel token (initialize and shutdown are not counted).
func (s *LspService) InFlight() int { return s.inbound.len() }

// Call processes one Incoming message, per spec.md §4.E. It returns a
// future — a channel that will receive exactly one Outgoing Response — for
// requests, and nil for notifications and Responses (which produce no
// reply on this side). Call itself never blocks on handler execution: it
// either resolves immediately (lifecycle violations, method-not-found) or
// spawns the handler invocation and returns the channel the driver will
// read from whenever the handler finishes, so distinct requests' handlers
// run concurrently and a slow one never holds up dispatch of the next
// inbound message.
func (s *LspService) Call(ctx context.Context, msg jsonrpc.Incoming, registry responseSink) (<-chan jsonrpc.Outgoing, error) {
	switch msg.Kind {
	case jsonrpc.KindResponse:
		registry.Complete(msg.Response)
		return nil, nil
	case jsonrpc.KindNotification:
		s.handleNotification(ctx, msg.Notification)
		return nil, nil
	case jsonrpc.KindRequest:
		return s.handleRequest(ctx, msg.Request), nil
	default:
		return nil, fmt.Errorf("service: message has unknown kind %d", msg.Kind)
	}
}

func resolved(resp jsonrpc.Response) <-chan jsonrpc.Outgoing {
	ch := make(chan jsonrpc.Outgoing, 1)
	ch <- jsonrpc.OutgoingResponse(resp)
	return ch
}

func (s *LspService) handleNotification(ctx context.Context, note jsonrpc.Notification) {
	switch note.Method {
	case "exit":
		if s.lifecycle.get() != ShuttingDown {
			s.log.Warn().Msg("exit received without a prior shutdown")
		}
		s.lifecycle.forceExit()
		return
	case "$/cancelRequest":
		var params struct {
			ID jsonrpc.Id `json:"id"`
		}
		if err := decodeParams(note.Params, &params); err != nil {
			s.log.Warn().Err(err).Msg("malformed $/cancelRequest, ignoring")
			return
		}
		s.inbound.cancel(params.ID)
		return
	}

	entry, ok := dispatchTable[note.Method]
	if !ok || entry.notify == nil {
		s.log.Debug().Str("method", note.Method).Msg("unhandled notification")
		return
	}
	s.enqueueNotification(func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Str("method", note.Method).Msg("notification handler panicked")
			}
		}()
		if err := entry.notify(ctx, s.handler, note.Params); err != nil {
			s.log.Debug().Err(err).Str("method", note.Method).Msg("notification handler returned error, dropping")
		}
	})
}

func (s *LspService) handleRequest(ctx context.Context, req jsonrpc.Request) <-chan jsonrpc.Outgoing {
	if resp, handled := s.lifecycleGate(req); handled {
		return resolved(resp)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(ctx, req)
	case "shutdown":
		return s.handleShutdown(ctx, req)
	}

	if custom, ok := s.custom[req.Method]; ok {
		return s.spawnRequest(ctx, req, func(ctx context.Context, token CancelToken) (interface{}, error) {
			return custom(ctx, req.Params)
		})
	}

	entry, ok := dispatchTable[req.Method]
	if !ok || !entry.isRequest() {
		return resolved(jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewErrorf(jsonrpc.CodeMethodNotFound, "method not found: %s", req.Method)))
	}

	return s.spawnRequest(ctx, req, func(ctx context.Context, token CancelToken) (interface{}, error) {
		return entry.request(ctx, s.handler, token, req.Params)
	})
}

// lifecycleGate applies spec.md §3's invariants: only initialize is
// accepted in Uninitialized/Initializing; exit is handled in
// handleNotification (exit is always a notification, never gated here);
// all other requests in Uninitialized/Initializing fail
// ServerNotInitialized; requests in ShuttingDown/Exited fail
// InvalidRequest.
func (s *LspService) lifecycleGate(req jsonrpc.Request) (jsonrpc.Response, bool) {
	if req.Method == "initialize" {
		return jsonrpc.Response{}, false
	}

	switch s.lifecycle.get() {
	case Uninitialized, Initializing:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrServerNotInitialized()), true
	case ShuttingDown, Exited:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "server is shutting down")), true
	default:
		return jsonrpc.Response{}, false
	}
}

func (s *LspService) handleInitialize(ctx context.Context, req jsonrpc.Request) <-chan jsonrpc.Outgoing {
	if !s.lifecycle.transition(Uninitialized, Initializing) {
		return resolved(jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "already initialized")))
	}

	entry := dispatchTable["initialize"]
	ch := make(chan jsonrpc.Outgoing, 1)
	go func() {
		result, err := s.invokeHandler(ctx, nil, func(ctx context.Context, token CancelToken) (interface{}, error) {
			return entry.request(ctx, s.handler, token, req.Params)
		})
		if err != nil {
			ch <- jsonrpc.OutgoingResponse(s.errorResponse(req.ID, err))
			return
		}
		s.lifecycle.transition(Initializing, Initialized)
		resp, merr := jsonrpc.NewResultResponse(req.ID, result)
		if merr != nil {
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewErrorf(jsonrpc.CodeInternalError, "marshal result: %v", merr))
		}
		ch <- jsonrpc.OutgoingResponse(resp)
	}()
	return ch
}

func (s *LspService) handleShutdown(ctx context.Context, req jsonrpc.Request) <-chan jsonrpc.Outgoing {
	s.lifecycle.state.Store(int32(ShuttingDown))
	entry := dispatchTable["shutdown"]
	ch := make(chan jsonrpc.Outgoing, 1)
	go func() {
		_, err := s.invokeHandler(ctx, nil, func(ctx context.Context, token CancelToken) (interface{}, error) {
			return entry.request(ctx, s.handler, token, req.Params)
		})
		var resp jsonrpc.Response
		if err != nil {
			resp = s.errorResponse(req.ID, err)
		} else {
			resp, _ = jsonrpc.NewResultResponse(req.ID, nil)
		}
		ch <- jsonrpc.OutgoingResponse(resp)
	}()
	return ch
}

// spawnRequest implements spec.md §4.E step 3's generic request path:
// insert an inbound-pending entry with a fresh cancel token, invoke the
// handler with the token visible to it in a new goroutine, remove the
// entry on completion, and — if the token was tripped before completion —
// return RequestCancelled regardless of the handler's own outcome.
func (s *LspService) spawnRequest(ctx context.Context, req jsonrpc.Request, fn func(ctx context.Context, token CancelToken) (interface{}, error)) <-chan jsonrpc.Outgoing {
	token := s.inbound.insert(req.ID)
	ch := make(chan jsonrpc.Outgoing, 1)

	go func() {
		result, err := s.invokeHandler(ctx, token, fn)
		s.inbound.remove(req.ID)

		var resp jsonrpc.Response
		switch {
		case token.Cancelled():
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrRequestCancelled())
		case err != nil:
			resp = s.errorResponse(req.ID, err)
		default:
			var merr error
			resp, merr = jsonrpc.NewResultResponse(req.ID, result)
			if merr != nil {
				resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewErrorf(jsonrpc.CodeInternalError, "marshal result: %v", merr))
			}
		}
		ch <- jsonrpc.OutgoingResponse(resp)
	}()

	return ch
}

// invokeHandler runs fn, acquiring the single-threaded semaphore if
// configured, and recovers a handler panic into an InternalError per
// spec.md §7 ("Handler panics/faults must be caught and converted to
// InternalError responses; the dispatcher remains live").
func (s *LspService) invokeHandler(ctx context.Context, token CancelToken, fn func(ctx context.Context, token CancelToken) (interface{}, error)) (result interface{}, err error) {
	if s.sem != nil {
		if acquireErr := s.sem.Acquire(ctx, 1); acquireErr != nil {
			return nil, acquireErr
		}
		defer s.sem.Release(1)
	}

	defer func() {
		if r := recover(); r != nil {
			incidentID := uuid.NewString()
			s.log.Error().
				Str("incident_id", incidentID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked")
			err = &jsonrpc.Error{
				Code:    jsonrpc.CodeInternalError,
				Message: "internal error",
				Data:    map[string]string{"incidentId": incidentID},
			}
			result = nil
		}
	}()

	return fn(ctx, token)
}

func (s *LspService) errorResponse(id jsonrpc.Id, err error) jsonrpc.Response {
	if rpcErr, ok := err.(*jsonrpc.Error); ok {
		return jsonrpc.NewErrorResponse(id, rpcErr)
	}
	incidentID := uuid.NewString()
	s.log.Error().Str("incident_id", incidentID).Err(err).Msg("handler returned unclassified error")
	return jsonrpc.NewErrorResponse(id, &jsonrpc.Error{
		Code:    jsonrpc.CodeInternalError,
		Message: "internal error",
		Data:    map[string]string{"incidentId": incidentID},
	})
}
