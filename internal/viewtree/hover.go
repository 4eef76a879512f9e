package viewtree

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lspuri "go.lsp.dev/uri"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
)

// HoverProvider answers textDocument/hover with markdown describing the
// component, CSS class, or property under the cursor, pulling file
// locations and property lists from the project index and, where
// available, JSDoc comments from the backing TypeScript source.
type HoverProvider struct {
	scanner *Scanner
	parser  *Parser
	log     zerolog.Logger
}

func NewHoverProvider(scanner *Scanner, log zerolog.Logger) *HoverProvider {
	return &HoverProvider{scanner: scanner, parser: NewParser(), log: xio.Scoped(log, "hover")}
}

func (hp *HoverProvider) Provide(document *TextDocument, position Position) (*Hover, error) {
	content := document.Text
	wordRange := hp.parser.GetWordRangeAtPosition(content, position)
	if wordRange == nil {
		return nil, nil
	}

	nodeName := hp.textInRange(content, *wordRange)
	if nodeName == "" {
		return nil, nil
	}

	nodeType := hp.nodeType(content, position, *wordRange)
	documentURI := document.URI

	var hoverContent *MarkupContent
	var err error
	switch nodeType {
	case "root_class":
		hoverContent, err = hp.componentHover(nodeName, documentURI)
	case "class":
		hoverContent, err = hp.componentHover(nodeName, "")
	case "comp":
		hoverContent, err = hp.cssClassHover(nodeName, documentURI)
	case "prop":
		hoverContent = hp.propertyHover(nodeName, content)
	case "sub_prop":
		hoverContent = hp.propertyHover(nodeName, content)
	default:
		hoverContent = hp.genericHover(nodeName)
	}
	if err != nil {
		hp.log.Warn().Err(err).Str("node", nodeName).Msg("providing hover")
		return nil, err
	}
	if hoverContent == nil {
		return nil, nil
	}

	return &Hover{Contents: *hoverContent, Range: wordRange}, nil
}

func (hp *HoverProvider) nodeType(content string, position Position, wordRange Range) string {
	lines := strings.Split(content, "\n")
	if position.Line >= len(lines) {
		return "sub_prop"
	}
	line := lines[position.Line]
	nodeText := hp.textInRange(content, wordRange)

	if position.Character == 1 && position.Line == 0 {
		return "root_class"
	}
	if strings.HasPrefix(nodeText, "$") {
		return "class"
	}

	beforeWord := line[:wordRange.Start.Character]
	if strings.Contains(beforeWord, "$") && strings.HasSuffix(strings.TrimSpace(beforeWord), "$") {
		return "class"
	}
	if wordRange.Start.Character == 1 {
		return "prop"
	}
	if wordRange.Start.Character >= 2 && wordRange.Start.Character-2 < len(line) {
		switch line[wordRange.Start.Character-2] {
		case '>', '=', '^':
			return "prop"
		}
	}
	return "sub_prop"
}

func (hp *HoverProvider) componentHover(componentName, documentURI string) (*MarkupContent, error) {
	hasComponent := hp.scanner.HasComponent(componentName)

	var md []string
	md = append(md, fmt.Sprintf("**Component**: `%s`", componentName), "")

	if strings.HasPrefix(componentName, "$mol_") {
		md = append(md, "**Framework**: MOL Framework", "")
	}

	if !hasComponent {
		md = append(md, "*External component - not found in current project*", "")
		if strings.HasPrefix(componentName, "$") {
			parts := strings.Split(componentName[1:], "_")
			if len(parts) > 0 {
				last := parts[len(parts)-1]
				expected := strings.Join(parts, "/") + "/" + last + ".view.tree"
				md = append(md, fmt.Sprintf("**Expected path**: `%s`", expected), "")
			}
		}
		return &MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(md, "\n")}, nil
	}

	if file := hp.scanner.ComponentFile(componentName); file != "" {
		md = append(md, fmt.Sprintf("**File**: `%s`", hp.relativePath(file)), "")
	}

	properties := hp.scanner.PropertiesForComponent(componentName)
	if len(properties) > 0 {
		md = append(md, "**Properties**:")
		const maxProps = 10
		if len(properties) > maxProps {
			for _, prop := range properties[:maxProps] {
				md = append(md, fmt.Sprintf("- `%s`", prop))
			}
			md = append(md, fmt.Sprintf("- ... and %d more", len(properties)-maxProps))
		} else {
			for _, prop := range properties {
				md = append(md, fmt.Sprintf("- `%s`", prop))
			}
		}
		md = append(md, "")
	}

	if documentURI != "" {
		if doc, err := hp.typeScriptDocumentation(componentName, documentURI); err == nil && doc != "" {
			md = append(md, "**Documentation**:", doc, "")
		}
	}

	md = append(md, "**Usage**:", "```tree", componentName)
	if len(properties) > 0 {
		md = append(md, "\tproperty <= value")
	}
	md = append(md, "```")

	return &MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(md, "\n")}, nil
}

func (hp *HoverProvider) cssClassHover(className, documentURI string) (*MarkupContent, error) {
	var md []string
	md = append(md, fmt.Sprintf("**CSS Class**: `%s`", className), "")

	filePath := hp.filePath(documentURI)
	cssPath := strings.Replace(filePath, ".view.tree", ".css.ts", 1)

	if _, err := os.Stat(cssPath); err == nil {
		md = append(md, fmt.Sprintf("**Defined in**: `%s`", hp.relativePath(cssPath)), "")

		if content, err := os.ReadFile(cssPath); err == nil {
			if rule := hp.extractCssRule(string(content), className); rule != "" {
				md = append(md, "**CSS Rules**:", "```css", rule, "```")
			}
		}
	} else {
		md = append(md, "*CSS file not found*")
	}

	return &MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(md, "\n")}, nil
}

func (hp *HoverProvider) propertyHover(propertyName, content string) *MarkupContent {
	currentComponent := hp.parser.GetCurrentComponent(content, Position{Line: 0, Character: 0})

	var md []string
	md = append(md, fmt.Sprintf("**Property**: `%s`", propertyName), "")

	if currentComponent != "" {
		md = append(md, fmt.Sprintf("**Component**: `%s`", currentComponent), "")
	}

	if ctx := hp.propertyContext(propertyName, content); ctx != nil {
		if ctx.BindingType != "" {
			md = append(md, fmt.Sprintf("**Binding**: `%s`", ctx.BindingType), "")
		}
		if ctx.Value != "" {
			md = append(md, fmt.Sprintf("**Value**: `%s`", ctx.Value), "")
		}
		if ctx.BoundProperty != "" {
			md = append(md, fmt.Sprintf("**Bound to**: `%s`", ctx.BoundProperty), "")
		}
	}

	if desc := commonPropertyDescriptions[propertyName]; desc != "" {
		md = append(md, fmt.Sprintf("**Description**: %s", desc), "")
	}

	if usage := hp.propertyUsageExample(propertyName); usage != "" {
		md = append(md, "**Usage**:", "```tree", usage, "```")
	}

	return &MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(md, "\n")}
}

// PropertyContext captures how a property is bound or assigned at its use
// site, scraped from the raw line text since this is best-effort hover
// prose rather than something that needs the full parser.
type PropertyContext struct {
	BindingType   string // "<=", "<=>", "=>", "^", ""
	Value         string
	BoundProperty string
}

func (hp *HoverProvider) propertyContext(propertyName, content string) *PropertyContext {
	escaped := regexp.QuoteMeta(propertyName)
	twoWay := regexp.MustCompile(escaped + `\s*<=>\s*(\S+)`)
	oneWay := regexp.MustCompile(escaped + `\s*<=\s*(\S+)`)
	forward := regexp.MustCompile(escaped + `\s*=>\s*(\S+)`)
	override := regexp.MustCompile(escaped + `\s*\^\s*(\S+)`)
	direct := regexp.MustCompile(escaped + `\s+(.+)`)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(line, propertyName) {
			continue
		}
		if m := twoWay.FindStringSubmatch(trimmed); len(m) > 1 {
			return &PropertyContext{BindingType: "<=>", BoundProperty: m[1]}
		}
		if m := oneWay.FindStringSubmatch(trimmed); len(m) > 1 {
			return &PropertyContext{BindingType: "<=", BoundProperty: m[1]}
		}
		if m := forward.FindStringSubmatch(trimmed); len(m) > 1 {
			return &PropertyContext{BindingType: "=>", BoundProperty: m[1]}
		}
		if m := override.FindStringSubmatch(trimmed); len(m) > 1 {
			return &PropertyContext{BindingType: "^", Value: m[1]}
		}
		if m := direct.FindStringSubmatch(trimmed); len(m) > 1 {
			value := strings.TrimSpace(m[1])
			if !strings.HasPrefix(value, "<=") && !strings.HasPrefix(value, "=>") && !strings.HasPrefix(value, "^") {
				return &PropertyContext{Value: value}
			}
		}
	}
	return nil
}

var commonPropertyDescriptions = map[string]string{
	"title":          "Display text or label for the component",
	"hint":           "Placeholder or helper text",
	"value":          "Current value of the component",
	"enabled":        "Whether the component is enabled/disabled",
	"visible":        "Whether the component is visible",
	"click":          "Click event handler",
	"change":         "Change event handler",
	"focus":          "Focus event handler",
	"blur":           "Blur event handler",
	"sub":            "Sub-components or child elements",
	"content":        "Content area of the component",
	"plugins":        "Plugin configurations",
	"attr":           "HTML attributes",
	"field":          "Form field configuration",
	"uri":            "URL or URI reference",
	"rows":           "List of row items",
	"dom_name":       "HTML tag name",
	"dom_name_space": "HTML namespace",
}

func (hp *HoverProvider) propertyUsageExample(propertyName string) string {
	examples := map[string]string{
		"title":   fmt.Sprintf("\t%s @ \\Display Text", propertyName),
		"hint":    fmt.Sprintf("\t%s @ \\Placeholder text", propertyName),
		"value":   fmt.Sprintf("\t%s? <=> bound_property? \\default", propertyName),
		"enabled": fmt.Sprintf("\t%s <= is_enabled", propertyName),
		"click":   fmt.Sprintf("\t%s? <=> on_click? null", propertyName),
		"sub":     fmt.Sprintf("\t%s /\n\t\t<= Item $component", propertyName),
		"content": fmt.Sprintf("\t%s /\n\t\t<= Child $component", propertyName),
	}
	if example, ok := examples[propertyName]; ok {
		return example
	}
	return fmt.Sprintf("\t%s <= some_value", propertyName)
}

func (hp *HoverProvider) genericHover(nodeName string) *MarkupContent {
	var md []string
	md = append(md, fmt.Sprintf("**Element**: `%s`", nodeName), "")

	if info, ok := specialValues[nodeName]; ok {
		md = append(md, fmt.Sprintf("**Type**: %s", info.Type), "", fmt.Sprintf("**Description**: %s", info.Description), "")
	}

	if len(md) <= 2 {
		return nil
	}
	return &MarkupContent{Kind: MarkupKindMarkdown, Value: strings.Join(md, "\n")}
}

type SpecialValueInfo struct {
	Type        string
	Description string
}

var specialValues = map[string]SpecialValueInfo{
	"null":  {Type: "null", Description: "Represents an empty or undefined value"},
	"true":  {Type: "boolean", Description: "Boolean true value"},
	"false": {Type: "boolean", Description: "Boolean false value"},
	"/":     {Type: "list", Description: "Empty list marker"},
	"*":     {Type: "dictionary", Description: "Dictionary marker for key-value pairs"},
	"\\":    {Type: "string", Description: "String literal marker"},
	"@\\":   {Type: "localized string", Description: "Localized string literal marker"},
}

func (hp *HoverProvider) typeScriptDocumentation(componentName, documentURI string) (string, error) {
	filePath := hp.filePath(documentURI)
	tsPath := strings.Replace(filePath, ".view.tree", ".ts", 1)

	content, err := os.ReadFile(tsPath)
	if err != nil {
		return "", err
	}

	classRegex := regexp.MustCompile(`/\*\*([\s\S]*?)\*/\s*export\s+class\s+` + regexp.QuoteMeta(componentName))
	match := classRegex.FindStringSubmatch(string(content))
	if len(match) <= 1 {
		return "", nil
	}

	var docLines []string
	leadingStarRe := regexp.MustCompile(`^\s*\*\s?`)
	for _, line := range strings.Split(match[1], "\n") {
		cleaned := strings.TrimSpace(leadingStarRe.ReplaceAllString(line, ""))
		if cleaned != "" {
			docLines = append(docLines, cleaned)
		}
	}
	return strings.Join(docLines, "\n"), nil
}

func (hp *HoverProvider) extractCssRule(cssContent, className string) string {
	classRegex := regexp.MustCompile(regexp.QuoteMeta(className) + `\s*:\s*\{([^}]+)\}`)
	match := classRegex.FindStringSubmatch(cssContent)
	if len(match) <= 1 {
		return ""
	}

	var cleaned []string
	for _, line := range strings.Split(match[1], "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}

func (hp *HoverProvider) relativePath(path string) string {
	rel, err := filepath.Rel(hp.scanner.WorkspaceRoot(), path)
	if err != nil {
		return path
	}
	return rel
}

func (hp *HoverProvider) textInRange(content string, r Range) string {
	lines := strings.Split(content, "\n")
	if r.Start.Line >= len(lines) {
		return ""
	}
	line := lines[r.Start.Line]
	if r.Start.Character >= len(line) || r.End.Character > len(line) {
		return ""
	}
	return line[r.Start.Character:r.End.Character]
}

func (hp *HoverProvider) filePath(uri string) string {
	return lspuri.URI(uri).Filename()
}
