package lspclient

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cmyser/lspcore/jsonrpc"
	"github.com/cmyser/lspcore/pending"
)

func newTestClient() (*Client, *ChanSink, *pending.Registry) {
	sink := NewChanSink(16)
	registry := pending.NewRegistry(zerolog.Nop())
	return New(sink, registry, zerolog.Nop()), sink, registry
}

func TestClient_NextRequestIDStartsAtZeroAndIncrements(t *testing.T) {
	c, _, _ := newTestClient()
	require.Equal(t, jsonrpc.NewNumberId(0), c.nextRequestID())
	require.Equal(t, jsonrpc.NewNumberId(1), c.nextRequestID())
	require.Equal(t, jsonrpc.NewNumberId(2), c.nextRequestID())
}

func TestSendRequest_ResolvesOnResponse(t *testing.T) {
	c, sink, registry := newTestClient()

	done := make(chan struct{})
	var result string
	var sendErr error
	go func() {
		result, sendErr = SendRequest[string](context.Background(), c, "workspace/configuration", nil)
		close(done)
	}()

	var sent jsonrpc.Outgoing
	select {
	case sent = <-sink.Messages():
	case <-time.After(time.Second):
		t.Fatal("request never reached the sink")
	}
	require.Equal(t, jsonrpc.KindRequest, sent.Kind)
	require.Equal(t, "workspace/configuration", sent.Request.Method)

	resp, err := jsonrpc.NewResultResponse(sent.Request.ID, "answer")
	require.NoError(t, err)
	registry.Complete(resp)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendRequest never returned")
	}
	require.NoError(t, sendErr)
	require.Equal(t, "answer", result)
}

func TestSendRequest_PropagatesErrorResponse(t *testing.T) {
	c, sink, registry := newTestClient()

	done := make(chan struct{})
	var sendErr error
	go func() {
		_, sendErr = SendRequest[string](context.Background(), c, "workspace/configuration", nil)
		close(done)
	}()

	sent := <-sink.Messages()
	registry.Complete(jsonrpc.NewErrorResponse(sent.Request.ID, jsonrpc.NewError(jsonrpc.CodeInternalError, "boom")))

	<-done
	require.Error(t, sendErr)
}

func TestSendRequest_ContextCancelEmitsCancelNotification(t *testing.T) {
	c, sink, _ := newTestClient()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var sendErr error
	go func() {
		_, sendErr = SendRequest[string](ctx, c, "workspace/configuration", nil)
		close(done)
	}()

	<-sink.Messages() // the original request
	cancel()

	<-done
	require.ErrorIs(t, sendErr, context.Canceled)

	select {
	case msg := <-sink.Messages():
		require.Equal(t, jsonrpc.KindNotification, msg.Kind)
		require.Equal(t, "$/cancelRequest", msg.Notification.Method)
	case <-time.After(time.Second):
		t.Fatal("expected a $/cancelRequest notification")
	}
}

func TestSendNotification_EnqueuesWithoutID(t *testing.T) {
	c, sink, _ := newTestClient()
	require.NoError(t, c.SendNotification("textDocument/publishDiagnostics", map[string]int{"a": 1}))

	msg := <-sink.Messages()
	require.Equal(t, jsonrpc.KindNotification, msg.Kind)
	require.Equal(t, "textDocument/publishDiagnostics", msg.Notification.Method)
}

func TestChanSink_SendAndMessages(t *testing.T) {
	sink := NewChanSink(4)
	note, err := jsonrpc.NewNotification("x", nil)
	require.NoError(t, err)
	sink.Send(jsonrpc.OutgoingNotification(note))

	got := <-sink.Messages()
	require.Equal(t, "x", got.Notification.Method)
}
