package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/cmyser/lspcore/jsonrpc"
	"github.com/cmyser/lspcore/lspclient"
	"github.com/cmyser/lspcore/pending"
)

// fakeHandler records calls it receives so tests can assert dispatch
// reached the right method.
type fakeHandler struct {
	UnimplementedHandler
	hoverCalls int
	panics     bool
}

func (h *fakeHandler) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{}, nil
}

func (h *fakeHandler) Hover(ctx context.Context, token CancelToken, params *protocol.HoverParams) (*protocol.Hover, error) {
	h.hoverCalls++
	if h.panics {
		panic("boom")
	}
	return &protocol.Hover{}, nil
}

func newTestService(h *fakeHandler) *LspService {
	sink := lspclient.NewChanSink(16)
	registry := pending.NewRegistry(zerolog.Nop())
	client := lspclient.New(sink, registry, zerolog.Nop())
	return New(func(*lspclient.Client) Handler { return h }, client, zerolog.Nop())
}

func mustRequest(t *testing.T, id jsonrpc.Id, method string, params interface{}) jsonrpc.Incoming {
	t.Helper()
	req, err := jsonrpc.NewRequest(id, method, params)
	require.NoError(t, err)
	return jsonrpc.Incoming{Kind: jsonrpc.KindRequest, Request: req}
}

func recvResponse(t *testing.T, ch <-chan jsonrpc.Outgoing) jsonrpc.Response {
	t.Helper()
	select {
	case msg := <-ch:
		require.Equal(t, jsonrpc.KindResponse, msg.Kind)
		return msg.Response
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
	return jsonrpc.Response{}
}

func TestLspService_RejectsRequestsBeforeInitialize(t *testing.T) {
	s := newTestService(&fakeHandler{})

	ch, err := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "textDocument/hover", nil), noopSink{})
	require.NoError(t, err)
	resp := recvResponse(t, ch)
	require.NotNil(t, resp.Error)
	require.Equal(t, jsonrpc.CodeServerNotInitialized, resp.Error.Code)
}

func TestLspService_InitializeTransitionsLifecycle(t *testing.T) {
	s := newTestService(&fakeHandler{})
	require.Equal(t, Uninitialized, s.State())

	ch, err := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "initialize", &protocol.InitializeParams{}), noopSink{})
	require.NoError(t, err)
	resp := recvResponse(t, ch)
	require.Nil(t, resp.Error)
	require.Equal(t, Initialized, s.State())
}

func TestLspService_DoubleInitializeFails(t *testing.T) {
	s := newTestService(&fakeHandler{})
	ch, _ := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "initialize", &protocol.InitializeParams{}), noopSink{})
	recvResponse(t, ch)

	ch, _ = s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(2), "initialize", &protocol.InitializeParams{}), noopSink{})
	resp := recvResponse(t, ch)
	require.NotNil(t, resp.Error)
}

func TestLspService_DispatchesHoverAfterInitialize(t *testing.T) {
	h := &fakeHandler{}
	s := newTestService(h)
	ch, _ := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "initialize", &protocol.InitializeParams{}), noopSink{})
	recvResponse(t, ch)

	ch, err := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(2), "textDocument/hover", &protocol.HoverParams{}), noopSink{})
	require.NoError(t, err)
	resp := recvResponse(t, ch)
	require.Nil(t, resp.Error)
	require.Equal(t, 1, h.hoverCalls)
}

func TestLspService_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	h := &fakeHandler{}
	s := newTestService(h)
	ch, _ := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "initialize", &protocol.InitializeParams{}), noopSink{})
	recvResponse(t, ch)

	ch, _ = s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(2), "totally/bogus", nil), noopSink{})
	resp := recvResponse(t, ch)
	require.NotNil(t, resp.Error)
	require.Equal(t, jsonrpc.CodeMethodNotFound, resp.Error.Code)
}

func TestLspService_HandlerPanicBecomesInternalError(t *testing.T) {
	h := &fakeHandler{panics: true}
	s := newTestService(h)
	ch, _ := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "initialize", &protocol.InitializeParams{}), noopSink{})
	recvResponse(t, ch)

	ch, _ = s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(2), "textDocument/hover", &protocol.HoverParams{}), noopSink{})
	resp := recvResponse(t, ch)
	require.NotNil(t, resp.Error)
	require.Equal(t, jsonrpc.CodeInternalError, resp.Error.Code)
}

func TestLspService_ExitForcesExitedFromAnyState(t *testing.T) {
	s := newTestService(&fakeHandler{})
	note, err := jsonrpc.NewNotification("exit", nil)
	require.NoError(t, err)
	_, callErr := s.Call(context.Background(), jsonrpc.Incoming{Kind: jsonrpc.KindNotification, Notification: note}, noopSink{})
	require.NoError(t, callErr)
	require.Equal(t, Exited, s.State())
}

func TestLspService_CancelRequestTripsInboundToken(t *testing.T) {
	s := newTestService(&fakeHandler{})
	ch, _ := s.Call(context.Background(), mustRequest(t, jsonrpc.NewNumberId(1), "initialize", &protocol.InitializeParams{}), noopSink{})
	recvResponse(t, ch)

	id := jsonrpc.NewNumberId(2)
	tok := s.inbound.insert(id)
	note, err := jsonrpc.NewNotification("$/cancelRequest", map[string]interface{}{"id": 2})
	require.NoError(t, err)
	_, callErr := s.Call(context.Background(), jsonrpc.Incoming{Kind: jsonrpc.KindNotification, Notification: note}, noopSink{})
	require.NoError(t, callErr)
	require.True(t, tok.Cancelled())
}

func TestLspService_ResponseKindCompletesOutboundRegistry(t *testing.T) {
	s := newTestService(&fakeHandler{})
	var completed *jsonrpc.Response
	sink := recordingSink{onComplete: func(r jsonrpc.Response) { completed = &r }}

	resp, err := jsonrpc.NewResultResponse(jsonrpc.NewNumberId(1), "x")
	require.NoError(t, err)
	_, callErr := s.Call(context.Background(), jsonrpc.Incoming{Kind: jsonrpc.KindResponse, Response: resp}, sink)
	require.NoError(t, callErr)
	require.NotNil(t, completed)
}

type noopSink struct{}

func (noopSink) Complete(jsonrpc.Response) {}

type recordingSink struct {
	onComplete func(jsonrpc.Response)
}

func (r recordingSink) Complete(resp jsonrpc.Response) { r.onComplete(resp) }
