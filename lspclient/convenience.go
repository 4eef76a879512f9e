package lspclient

import (
	"context"

	"go.lsp.dev/protocol"
)

// Convenience wrappers named in spec.md §4.D, thin shells over SendRequest
// and SendNotification, typed against the external LSP schema
// (go.lsp.dev/protocol) per SPEC_FULL.md §3.

func (c *Client) LogMessage(ctx context.Context, typ protocol.MessageType, message string) error {
	return c.SendNotification("window/logMessage", &protocol.LogMessageParams{
		Type:    typ,
		Message: message,
	})
}

func (c *Client) ShowMessage(ctx context.Context, typ protocol.MessageType, message string) error {
	return c.SendNotification("window/showMessage", &protocol.ShowMessageParams{
		Type:    typ,
		Message: message,
	})
}

func (c *Client) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	return c.SendNotification("textDocument/publishDiagnostics", params)
}

func (c *Client) RegisterCapability(ctx context.Context, params *protocol.RegistrationParams) error {
	_, err := SendRequest[struct{}](ctx, c, "client/registerCapability", params)
	return err
}

func (c *Client) ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResponse, error) {
	result, err := SendRequest[protocol.ApplyWorkspaceEditResponse](ctx, c, "workspace/applyEdit", params)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) WorkspaceConfiguration(ctx context.Context, params *protocol.ConfigurationParams) ([]interface{}, error) {
	return SendRequest[[]interface{}](ctx, c, "workspace/configuration", params)
}

func (c *Client) WorkspaceFolders(ctx context.Context) ([]protocol.WorkspaceFolder, error) {
	return SendRequest[[]protocol.WorkspaceFolder](ctx, c, "workspace/workspaceFolders", nil)
}

// WorkDoneProgressCreate and Progress supplement the distilled spec with
// the Rust original's incremental progress reporting, SPEC_FULL.md §5.
func (c *Client) WorkDoneProgressCreate(ctx context.Context, token protocol.ProgressToken) error {
	_, err := SendRequest[struct{}](ctx, c, "window/workDoneProgress/create", &protocol.WorkDoneProgressCreateParams{
		Token: token,
	})
	return err
}

func (c *Client) Progress(ctx context.Context, token protocol.ProgressToken, value interface{}) error {
	return c.SendNotification("$/progress", &protocol.ProgressParams{
		Token: token,
		Value: value,
	})
}
