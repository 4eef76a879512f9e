// Package lspserver implements the server driver of spec.md §4.G: it wires
// the frame codec, the dispatcher, and the client handle's outbound stream
// over a byte duplex, interleaves outbound traffic, and terminates
// cleanly.
package lspserver

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/codec"
	"github.com/cmyser/lspcore/internal/xio"
	"github.com/cmyser/lspcore/jsonrpc"
	"github.com/cmyser/lspcore/pending"
	"github.com/cmyser/lspcore/service"
)

// Registry is the outbound pending registry capability the driver needs:
// forwarding peer Responses into it (spec.md §4.E step 1). Len is part of
// the interface, but Serve does not consult it when deciding to return.
type Registry interface {
	Complete(jsonrpc.Response)
	Len() int
}

var _ Registry = (*pending.Registry)(nil)

// Server drives one LSP session: decode frames from a source, dispatch
// them through an LspService, and interleave the dispatcher's own
// responses with the client handle's outbound traffic back through the
// encoder.
type Server struct {
	svc      *service.LspService
	registry Registry
	log      zerolog.Logger

	extraMu sync.Mutex
	extra   []<-chan jsonrpc.Outgoing
}

func New(svc *service.LspService, registry Registry, log zerolog.Logger) *Server {
	return &Server{
		svc:      svc,
		registry: registry,
		log:      xio.Scoped(log, "driver"),
	}
}

// WithMessages registers an additional outbound stream to be interleaved
// with the dispatcher's responses — the side channel carrying the client
// handle's own requests and notifications (spec.md §4.G), and the hook
// tests and non-stdio transports use to inject outbound traffic
// independent of the main duplex. Must be called before Serve.
func (s *Server) WithMessages(stream <-chan jsonrpc.Outgoing) *Server {
	s.extraMu.Lock()
	s.extra = append(s.extra, stream)
	s.extraMu.Unlock()
	return s
}

// Serve runs the driver until termination, per spec.md §4.G: the read side
// stops when the input source ends or the lifecycle reaches Exited,
// whichever comes first, and Serve then returns once all in-flight
// inbound request handlers have resolved and the outbound queue has
// drained. `exit` terminates the read side immediately (spec.md §6); a
// bare EOF on the source without an explicit exit still drains in-flight
// handlers and flushes outbound before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := codec.NewReader(r, s.log)
	writer := codec.NewWriter(w)

	// outbound is the single merge point every response and every extra
	// stream funnels into; the egress loop drains only this one channel,
	// so write ordering onto the wire is simply receive order here. It is
	// closed only once every producer (decode loop, in-flight handlers,
	// extra streams) is provably done writing to it.
	outbound := make(chan jsonrpc.Outgoing, 64)

	var producers sync.WaitGroup

	s.extraMu.Lock()
	extra := append([]<-chan jsonrpc.Outgoing(nil), s.extra...)
	s.extraMu.Unlock()
	for _, stream := range extra {
		producers.Add(1)
		go func(stream <-chan jsonrpc.Outgoing) {
			defer producers.Done()
			for {
				select {
				case msg, ok := <-stream:
					if !ok {
						return
					}
					outbound <- msg
				case <-ctx.Done():
					return
				}
			}
		}(stream)
	}

	// decodeLoop holds a standing slot in producers for its own lifetime, not
	// just for the in-flight handlers it spawns: it also writes to outbound
	// directly and synchronously (malformed-request error responses) before
	// ever calling inFlight.Add. Without this, the closed-goroutine below
	// can observe producers at zero and close outbound before decodeLoop
	// (or its first handler) ever gets to send.
	producers.Add(1)
	decodeErrCh := make(chan error, 1)
	go func() {
		defer producers.Done()
		decodeErrCh <- s.decodeLoop(ctx, reader, outbound, &producers)
	}()

	closed := make(chan struct{})
	go func() {
		producers.Wait()
		close(outbound)
		close(closed)
	}()

	egressErrCh := make(chan error, 1)
	go func() {
		egressErrCh <- s.egressLoop(writer, outbound)
	}()

	// Wait for decode and egress concurrently: either can finish first, and
	// if egress fails while decode (or an in-flight handler) is still
	// trying to send into outbound, something must take over reading it
	// immediately or the sender blocks forever on a full channel.
	var decodeErr, egressErr error
	var decodeDone, egressDone bool
	for !decodeDone || !egressDone {
		select {
		case decodeErr = <-decodeErrCh:
			decodeDone = true
			cancel() // unblocks any extra-stream forwarder waiting on ctx.Done()
		case egressErr = <-egressErrCh:
			egressDone = true
			if egressErr != nil {
				// the peer connection is broken; egressLoop already
				// returned and stopped reading outbound, so keep draining
				// it ourselves until every producer is done.
				go func() {
					for range outbound {
					}
				}()
			}
		}
	}
	<-closed

	if egressErr != nil {
		return egressErr
	}
	if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return decodeErr
	}
	return nil
}

func (s *Server) decodeLoop(ctx context.Context, reader *codec.Reader, outbound chan<- jsonrpc.Outgoing, inFlight *sync.WaitGroup) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := reader.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			var decErr *codec.DecodeError
			if errors.As(err, &decErr) {
				s.log.Warn().Err(err).Msg("dropping malformed frame")
				continue
			}
			return err
		}

		s.dispatchOne(ctx, raw, outbound, inFlight)

		if s.svc.State() == service.Exited {
			return io.EOF
		}
	}
}

func (s *Server) dispatchOne(ctx context.Context, raw []byte, outbound chan<- jsonrpc.Outgoing, inFlight *sync.WaitGroup) {
	incoming, err := jsonrpc.DecodeIncoming(raw)
	if err != nil {
		if id, ok := jsonrpc.SniffID(raw); ok {
			var rpcErr *jsonrpc.Error
			if !errors.As(err, &rpcErr) {
				rpcErr = jsonrpc.NewError(jsonrpc.CodeInvalidRequest, err.Error())
			}
			outbound <- jsonrpc.OutgoingResponse(jsonrpc.NewErrorResponse(id, rpcErr))
		} else {
			s.log.Warn().Err(err).Msg("dropping message with no parseable id")
		}
		return
	}

	if incoming.Kind == jsonrpc.KindResponse {
		// a Response on the inbound side is the peer answering a request
		// our client handle sent; correlate it through the outbound
		// pending registry rather than the dispatcher (spec.md §4.C).
		s.registry.Complete(incoming.Response)
		return
	}

	future, err := s.svc.Call(ctx, incoming, s.registry)
	if err != nil {
		s.log.Error().Err(err).Msg("dispatcher call failed")
		return
	}
	if future == nil {
		return
	}

	inFlight.Add(1)
	go func() {
		defer inFlight.Done()
		outbound <- <-future
	}()
}

// egressLoop writes every message it receives until outbound is closed and
// drained, or a write fails. It never stops early on context cancellation:
// a response that is already queued must still reach the peer even once
// shutdown begins. On a write error the caller takes over consuming
// outbound so producers never block on a full channel.
func (s *Server) egressLoop(writer *codec.Writer, outbound <-chan jsonrpc.Outgoing) error {
	for msg := range outbound {
		if err := writer.WriteMessage(msg); err != nil {
			return err
		}
	}
	return nil
}
