package viewtree

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
)

type completionContext struct {
	kind             string // "component_name", "component_extends", "property_name", "property_binding", "value"
	indentLevel      int
	currentComponent string
}

// CompletionProvider answers textDocument/completion against the project
// index and the surrounding syntax at the cursor.
type CompletionProvider struct {
	scanner *Scanner
	parser  *Parser
	log     zerolog.Logger
}

func NewCompletionProvider(scanner *Scanner, log zerolog.Logger) *CompletionProvider {
	return &CompletionProvider{scanner: scanner, parser: NewParser(), log: xio.Scoped(log, "completion")}
}

func (cp *CompletionProvider) Provide(document *TextDocument, position Position) ([]CompletionItem, error) {
	lines := strings.Split(document.Text, "\n")
	if position.Line >= len(lines) {
		return nil, nil
	}

	line := lines[position.Line]
	var beforeCursor string
	if position.Character <= len(line) {
		beforeCursor = line[:position.Character]
	}

	ctx := cp.context(document.Text, position, beforeCursor)
	cp.log.Debug().Str("kind", ctx.kind).Int("indent", ctx.indentLevel).Msg("completion context")

	var items []CompletionItem
	switch ctx.kind {
	case "component_name", "component_extends":
		cp.addComponents(&items)
	case "property_name":
		cp.addProperties(&items, ctx.currentComponent)
	case "property_binding":
		cp.addBindingOperators(&items)
	case "value":
		cp.addValues(&items)
		cp.addComponents(&items)
	}
	return items, nil
}

func (cp *CompletionProvider) context(content string, position Position, beforeCursor string) completionContext {
	trimmed := strings.TrimSpace(beforeCursor)
	indentLevel := len(beforeCursor) - len(strings.TrimLeft(beforeCursor, " \t"))

	switch {
	case strings.HasPrefix(trimmed, "$"):
		return completionContext{kind: "component_name", indentLevel: indentLevel}
	case indentLevel == 0 && !strings.Contains(trimmed, " "):
		return completionContext{kind: "component_name", indentLevel: indentLevel}
	case indentLevel == 0:
		return completionContext{kind: "component_extends", indentLevel: indentLevel}
	case strings.Contains(trimmed, "<="):
		return completionContext{kind: "property_binding", indentLevel: indentLevel}
	case indentLevel > 0:
		return completionContext{
			kind:             "property_name",
			indentLevel:      indentLevel,
			currentComponent: cp.parser.GetCurrentComponent(content, position),
		}
	default:
		return completionContext{kind: "value", indentLevel: indentLevel}
	}
}

func (cp *CompletionProvider) addComponents(items *[]CompletionItem) {
	for _, component := range cp.scanner.Components() {
		*items = append(*items, CompletionItem{
			Label:         component,
			Kind:          CompletionItemKindClass,
			InsertText:    component,
			SortText:      "1" + component,
			Detail:        "Component",
			Documentation: fmt.Sprintf("Component: %s", component),
		})
	}
}

func (cp *CompletionProvider) addProperties(items *[]CompletionItem, currentComponent string) {
	if currentComponent != "" {
		for _, property := range cp.scanner.PropertiesForComponent(currentComponent) {
			*items = append(*items, CompletionItem{
				Label:         property,
				Kind:          CompletionItemKindProperty,
				InsertText:    property,
				SortText:      "1" + property,
				Detail:        fmt.Sprintf("Property of %s", currentComponent),
				Documentation: fmt.Sprintf("Property from component %s", currentComponent),
			})
		}
	} else {
		for _, property := range cp.scanner.AllProperties() {
			*items = append(*items, CompletionItem{
				Label:         property,
				Kind:          CompletionItemKindProperty,
				InsertText:    property,
				SortText:      "2" + property,
				Detail:        "Property",
				Documentation: "Property from project",
			})
		}
	}

	*items = append(*items, CompletionItem{
		Label: "/", Kind: CompletionItemKindOperator, InsertText: "/", SortText: "0/",
		Detail: "Empty list", Documentation: "Creates an empty list",
	})
	cp.addCommonProperties(items)
}

func (cp *CompletionProvider) addCommonProperties(items *[]CompletionItem) {
	common := []struct{ name, detail string }{
		{"dom_name", "DOM element name"},
		{"dom_name_space", "DOM namespace"},
		{"attr", "DOM attributes"},
		{"field", "Form field"},
		{"value", "Element value"},
		{"enabled", "Element enabled state"},
		{"visible", "Element visibility"},
		{"title", "Element title"},
		{"hint", "Element hint"},
		{"sub", "Sub-elements"},
		{"event", "Event handlers"},
		{"plugins", "Plugins"},
	}
	for _, p := range common {
		*items = append(*items, CompletionItem{
			Label: p.name, Kind: CompletionItemKindProperty, InsertText: p.name,
			SortText: "3" + p.name, Detail: p.detail, Documentation: p.detail,
		})
	}
}

func (cp *CompletionProvider) addBindingOperators(items *[]CompletionItem) {
	operators := []struct{ text, detail, doc string }{
		{"<=", "One-way binding", "Binds property value from parent to child (one direction)"},
		{"<=>", "Two-way binding", "Binds property value between parent and child (both directions)"},
		{"^", "Override", "Overrides property in parent class"},
		{"*", "Multi-property marker", "Marks property as accepting multiple values"},
	}
	for _, op := range operators {
		*items = append(*items, CompletionItem{
			Label: op.text, Kind: CompletionItemKindOperator, InsertText: op.text,
			SortText: "0" + op.text, Detail: op.detail, Documentation: op.doc,
		})
	}
}

func (cp *CompletionProvider) addValues(items *[]CompletionItem) {
	values := []struct{ text, detail, insertText, doc string }{
		{"null", "Null value", "null", "Represents empty/null value"},
		{"true", "Boolean true", "true", "Boolean true value"},
		{"false", "Boolean false", "false", "Boolean false value"},
		{"\\", "String literal", "\\\n\t\\", "Multi-line string literal"},
		{"@\\", "Localized string", "@\\\n\t\\", "Localized multi-line string"},
		{"*", "Dictionary marker", "*", "Marks property as dictionary"},
	}
	for _, v := range values {
		insertText := v.insertText
		if insertText == "" {
			insertText = v.text
		}
		item := CompletionItem{
			Label: v.text, Kind: CompletionItemKindValue, InsertText: insertText,
			SortText: "0" + v.text, Detail: v.detail, Documentation: v.doc,
		}
		if strings.Contains(insertText, "\n") {
			item.InsertTextFormat = InsertTextFormatSnippet
		}
		*items = append(*items, item)
	}
	cp.addCssClasses(items)
	cp.addEventHandlers(items)
}

func (cp *CompletionProvider) addCssClasses(items *[]CompletionItem) {
	classes := []string{
		"mol_theme_auto", "mol_theme_dark", "mol_theme_light",
		"mol_skin_auto", "mol_skin_dark", "mol_skin_light",
	}
	for _, c := range classes {
		*items = append(*items, CompletionItem{
			Label: c, Kind: CompletionItemKindEnumMember, InsertText: c,
			SortText: "4" + c, Detail: "CSS class", Documentation: fmt.Sprintf("CSS class: %s", c),
		})
	}
}

func (cp *CompletionProvider) addEventHandlers(items *[]CompletionItem) {
	events := []string{
		"event_click", "event_focus", "event_blur", "event_change", "event_input",
		"event_keydown", "event_keyup", "event_mousedown", "event_mouseup",
		"event_mouseover", "event_mouseout",
	}
	for _, e := range events {
		*items = append(*items, CompletionItem{
			Label: e, Kind: CompletionItemKindEvent, InsertText: e,
			SortText: "5" + e, Detail: "Event handler", Documentation: fmt.Sprintf("Event handler: %s", e),
		})
	}
}
