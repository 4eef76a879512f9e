package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeIncoming_Request(t *testing.T) {
	msg, err := DecodeIncoming([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"a":1}}`))
	require.NoError(t, err)
	require.Equal(t, KindRequest, msg.Kind)
	require.Equal(t, "initialize", msg.Request.Method)
	require.Equal(t, NewNumberId(1), msg.Request.ID)
}

func TestDecodeIncoming_Notification(t *testing.T) {
	msg, err := DecodeIncoming([]byte(`{"jsonrpc":"2.0","method":"initialized","params":{}}`))
	require.NoError(t, err)
	require.Equal(t, KindNotification, msg.Kind)
	require.Equal(t, "initialized", msg.Notification.Method)
}

func TestDecodeIncoming_ResponseWithResult(t *testing.T) {
	msg, err := DecodeIncoming([]byte(`{"jsonrpc":"2.0","id":3,"result":{"ok":true}}`))
	require.NoError(t, err)
	require.Equal(t, KindResponse, msg.Kind)
	require.JSONEq(t, `{"ok":true}`, string(msg.Response.Result))
}

func TestDecodeIncoming_ResponseWithAbsentResult(t *testing.T) {
	msg, err := DecodeIncoming([]byte(`{"jsonrpc":"2.0","id":3}`))
	require.NoError(t, err)
	require.Equal(t, KindResponse, msg.Kind)
	require.Equal(t, "null", string(msg.Response.Result))
}

func TestDecodeIncoming_ResponseWithError(t *testing.T) {
	msg, err := DecodeIncoming([]byte(`{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"nope"}}`))
	require.NoError(t, err)
	require.Equal(t, KindResponse, msg.Kind)
	require.NotNil(t, msg.Response.Error)
	require.Equal(t, int32(-32601), msg.Response.Error.Code)
}

func TestDecodeIncoming_RejectsBothResultAndError(t *testing.T) {
	_, err := DecodeIncoming([]byte(`{"jsonrpc":"2.0","id":3,"result":1,"error":{"code":1,"message":"x"}}`))
	require.Error(t, err)
}

func TestDecodeIncoming_RejectsInvalidJSON(t *testing.T) {
	_, err := DecodeIncoming([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeIncoming_RejectsNonObject(t *testing.T) {
	_, err := DecodeIncoming([]byte(`[1,2,3]`))
	require.Error(t, err)
}

func TestDecodeIncoming_RejectsUnrecognizedShape(t *testing.T) {
	_, err := DecodeIncoming([]byte(`{"foo":"bar"}`))
	require.Error(t, err)
}

func TestSniffID(t *testing.T) {
	id, ok := SniffID([]byte(`{"id":5,"method":"x"}`))
	require.True(t, ok)
	require.Equal(t, NewNumberId(5), id)

	id, ok = SniffID([]byte(`{"id":"abc"}`))
	require.True(t, ok)
	require.Equal(t, NewStringId("abc"), id)

	_, ok = SniffID([]byte(`{"method":"x"}`))
	require.False(t, ok)

	_, ok = SniffID([]byte(`not json`))
	require.False(t, ok)
}

func TestOutgoing_MarshalJSON(t *testing.T) {
	req, err := NewRequest(NewNumberId(1), "textDocument/hover", nil)
	require.NoError(t, err)
	out := OutgoingRequest(req)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"textDocument/hover"}`, string(data))
}

func TestOutgoing_MarshalJSON_InvalidKind(t *testing.T) {
	_, err := json.Marshal(Outgoing{Kind: KindInvalid})
	require.Error(t, err)
}

func TestNewResultResponse_NilResultBecomesNull(t *testing.T) {
	resp, err := NewResultResponse(NewNumberId(1), nil)
	require.NoError(t, err)
	require.Equal(t, "null", string(resp.Result))
}
