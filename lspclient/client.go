// Package lspclient implements the client handle of spec.md §4.D: the
// object handler code uses to originate server→client requests and
// notifications.
package lspclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
	"github.com/cmyser/lspcore/jsonrpc"
	"github.com/cmyser/lspcore/pending"
)

// Sink is the shared multi-producer outbound queue that both the client
// handle and the dispatcher hold references to, per spec.md §3
// "Ownership". lspserver reads from it to interleave outbound traffic with
// dispatcher responses.
type Sink interface {
	Send(jsonrpc.Outgoing)
}

// ChanSink is the default Sink: a buffered channel. The server driver
// reads it via Messages().
type ChanSink struct {
	ch chan jsonrpc.Outgoing
}

func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{ch: make(chan jsonrpc.Outgoing, buffer)}
}

func (s *ChanSink) Send(msg jsonrpc.Outgoing) { s.ch <- msg }

func (s *ChanSink) Messages() <-chan jsonrpc.Outgoing { return s.ch }

func (s *ChanSink) Close() { close(s.ch) }

// Client is clonable (copy the struct; all fields are reference types) and
// cheap to pass into handler tasks.
type Client struct {
	sink     Sink
	registry *pending.Registry
	nextID   *atomic.Int64
	log      zerolog.Logger
}

// New builds a Client sharing sink and registry with the caller (normally
// lspserver, which also shares registry with the dispatcher's response
// routing).
func New(sink Sink, registry *pending.Registry, log zerolog.Logger) *Client {
	return &Client{
		sink:     sink,
		registry: registry,
		nextID:   new(atomic.Int64),
		log:      xio.Scoped(log, "client"),
	}
}

// nextRequestID allocates the next monotonically increasing id, spec.md
// §3: "Outbound ids chosen by the client handle are monotonically
// increasing 64-bit integers beginning at 0."
func (c *Client) nextRequestID() jsonrpc.Id {
	return jsonrpc.NewNumberId(c.nextID.Add(1) - 1)
}

// SendRequest issues a server→client request and blocks until the
// corresponding Response arrives or ctx is cancelled. Cancelling ctx
// cancels the pending entry and emits a $/cancelRequest notification to
// the peer, spec.md §5 "Cancellation — Outbound".
func SendRequest[Result any](ctx context.Context, c *Client, method string, params interface{}) (Result, error) {
	var zero Result

	id := c.nextRequestID()
	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return zero, fmt.Errorf("lspclient: marshal params for %s: %w", method, err)
	}

	waiter := c.registry.Register(id)
	c.sink.Send(jsonrpc.OutgoingRequest(req))

	select {
	case resp := <-waiter.Chan():
		if resp.Error != nil {
			return zero, resp.Error
		}
		var result Result
		if len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, &result); err != nil {
				return zero, fmt.Errorf("lspclient: unmarshal result for %s: %w", method, err)
			}
		}
		return result, nil
	case <-ctx.Done():
		if c.registry.Cancel(id) {
			c.emitCancel(id)
		}
		return zero, ctx.Err()
	}
}

// SendNotification enqueues a notification without waiting for any reply.
func (c *Client) SendNotification(method string, params interface{}) error {
	note, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("lspclient: marshal params for %s: %w", method, err)
	}
	c.sink.Send(jsonrpc.OutgoingNotification(note))
	return nil
}

func (c *Client) emitCancel(id jsonrpc.Id) {
	note, err := jsonrpc.NewNotification("$/cancelRequest", map[string]interface{}{"id": idJSON(id)})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to build $/cancelRequest notification")
		return
	}
	c.sink.Send(jsonrpc.OutgoingNotification(note))
}

func idJSON(id jsonrpc.Id) interface{} {
	switch id.Kind {
	case jsonrpc.IdKindNumber:
		return id.Num
	case jsonrpc.IdKindString:
		return id.Str
	default:
		return nil
	}
}
