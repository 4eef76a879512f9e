package main

import (
	"go.lsp.dev/protocol"
	lspuri "go.lsp.dev/uri"

	"github.com/cmyser/lspcore/internal/viewtree"
)

func lspURIFilename(uri string) string {
	return lspuri.URI(uri).Filename()
}

func toInternalPosition(p protocol.Position) viewtree.Position {
	return viewtree.Position{Line: int(p.Line), Character: int(p.Character)}
}

func fromInternalPosition(p viewtree.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func fromInternalRange(r viewtree.Range) protocol.Range {
	return protocol.Range{Start: fromInternalPosition(r.Start), End: fromInternalPosition(r.End)}
}

func fromInternalLocation(l viewtree.Location) protocol.Location {
	return protocol.Location{URI: protocol.DocumentURI(l.URI), Range: fromInternalRange(l.Range)}
}

func fromInternalCompletionItem(item viewtree.CompletionItem) protocol.CompletionItem {
	return protocol.CompletionItem{
		Label:            item.Label,
		Kind:             protocol.CompletionItemKind(item.Kind),
		Detail:           item.Detail,
		Documentation:    item.Documentation,
		InsertText:       item.InsertText,
		InsertTextFormat: protocol.InsertTextFormat(item.InsertTextFormat),
		SortText:         item.SortText,
	}
}

func fromInternalHover(h *viewtree.Hover) *protocol.Hover {
	if h == nil {
		return nil
	}
	out := &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKind(h.Contents.Kind),
			Value: h.Contents.Value,
		},
	}
	if h.Range != nil {
		r := fromInternalRange(*h.Range)
		out.Range = &r
	}
	return out
}

func fromInternalDiagnostic(d viewtree.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    fromInternalRange(d.Range),
		Severity: protocol.DiagnosticSeverity(d.Severity),
		Source:   d.Source,
		Message:  d.Message,
	}
}
