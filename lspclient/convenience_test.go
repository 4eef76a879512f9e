package lspclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestLogMessage_SendsNotification(t *testing.T) {
	c, sink, _ := newTestClient()
	require.NoError(t, c.LogMessage(context.Background(), protocol.MessageTypeInfo, "hello"))

	msg := <-sink.Messages()
	require.Equal(t, "window/logMessage", msg.Notification.Method)
}

func TestPublishDiagnostics_SendsNotification(t *testing.T) {
	c, sink, _ := newTestClient()
	require.NoError(t, c.PublishDiagnostics(context.Background(), &protocol.PublishDiagnosticsParams{
		URI: "file:///a.view.tree",
	}))

	msg := <-sink.Messages()
	require.Equal(t, "textDocument/publishDiagnostics", msg.Notification.Method)
}

func TestProgress_SendsNotification(t *testing.T) {
	c, sink, _ := newTestClient()
	require.NoError(t, c.Progress(context.Background(), *protocol.NewProgressToken("tok"), 42))

	msg := <-sink.Messages()
	require.Equal(t, "$/progress", msg.Notification.Method)
}
