package viewtree

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lspuri "go.lsp.dev/uri"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
)

// DefinitionProvider answers textDocument/definition by locating the
// backing .ts/.css.ts source for a component, property, or CSS class
// referenced from a .view.tree file.
type DefinitionProvider struct {
	scanner *Scanner
	parser  *Parser
	log     zerolog.Logger
}

func NewDefinitionProvider(scanner *Scanner, log zerolog.Logger) *DefinitionProvider {
	return &DefinitionProvider{scanner: scanner, parser: NewParser(), log: xio.Scoped(log, "definition")}
}

func (dp *DefinitionProvider) Provide(document *TextDocument, position Position) ([]Location, error) {
	wordRange := dp.parser.GetWordRangeAtPosition(document.Text, position)
	if wordRange == nil {
		return nil, nil
	}

	nodeName := dp.textInRange(document.Text, *wordRange)
	if nodeName == "" {
		return nil, nil
	}

	switch dp.nodeType(document.Text, position, *wordRange) {
	case "root_class":
		return dp.findRootClass(document.URI, nodeName)
	case "class":
		return dp.findClass(nodeName)
	case "comp":
		return dp.findComp(document.URI, nodeName)
	case "prop", "sub_prop":
		return dp.findProp(document.URI, nodeName)
	default:
		return nil, nil
	}
}

func (dp *DefinitionProvider) nodeType(content string, position Position, wordRange Range) string {
	if wordRange.Start.Line == 0 && wordRange.Start.Character == 1 {
		return "root_class"
	}

	lines := strings.Split(content, "\n")
	if position.Line >= len(lines) {
		return "sub_prop"
	}
	line := lines[position.Line]

	if wordRange.Start.Character > 0 && wordRange.Start.Character-1 < len(line) && line[wordRange.Start.Character-1] == '$' {
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

func (dp *DefinitionProvider) findRootClass(documentURI, nodeName string) ([]Location, error) {
	tsPath := strings.Replace(dp.filePath(documentURI), ".view.tree", ".ts", 1)
	if _, err := os.Stat(tsPath); err != nil {
		return nil, nil
	}
	tsURI := dp.fileURI(tsPath)

	if loc, err := dp.findClassSymbol(tsURI, "$"+nodeName); err == nil && loc != nil {
		return []Location{*loc}, nil
	}
	return []Location{{URI: tsURI, Range: zeroRange}}, nil
}

func (dp *DefinitionProvider) findClass(nodeName string) ([]Location, error) {
	parts := strings.Split(nodeName, "_")
	if len(parts) == 0 {
		return nil, nil
	}
	last := parts[len(parts)-1]
	root := dp.scanner.WorkspaceRoot()

	candidates := []string{
		filepath.Join(append(append([]string{root}, parts...), last+".view.tree")...),
		filepath.Join(append(append([]string{root}, parts...), last, last+".view.tree")...),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return []Location{{URI: dp.fileURI(path), Range: zeroRange}}, nil
		}
	}

	if file := dp.scanner.ComponentFile(nodeName); file != "" {
		return []Location{{URI: dp.fileURI(file), Range: zeroRange}}, nil
	}
	return nil, nil
}

func (dp *DefinitionProvider) findComp(documentURI, nodeName string) ([]Location, error) {
	cssPath := strings.Replace(dp.filePath(documentURI), ".view.tree", ".css.ts", 1)
	content, err := os.ReadFile(cssPath)
	if err != nil {
		return nil, nil
	}
	cssURI := dp.fileURI(cssPath)
	if loc := dp.extractCssRule(string(content), cssURI, nodeName); loc != nil {
		return []Location{*loc}, nil
	}
	return []Location{{URI: cssURI, Range: zeroRange}}, nil
}

func (dp *DefinitionProvider) findProp(documentURI, nodeName string) ([]Location, error) {
	content, err := os.ReadFile(dp.filePath(documentURI))
	if err != nil {
		return nil, err
	}

	currentComponent := dp.currentComponentFromContent(string(content))
	if currentComponent == "" {
		return nil, nil
	}

	tsPath := strings.Replace(dp.filePath(documentURI), ".view.tree", ".ts", 1)
	if _, err := os.Stat(tsPath); err != nil {
		return nil, nil
	}

	if loc, err := dp.findPropertyInFile(dp.fileURI(tsPath), currentComponent, nodeName); err == nil && loc != nil {
		return []Location{*loc}, nil
	}
	return dp.findComp(documentURI, nodeName)
}

func (dp *DefinitionProvider) findClassSymbol(fileURI, className string) (*Location, error) {
	content, err := os.ReadFile(dp.filePath(fileURI))
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`class\s+` + regexp.QuoteMeta(className) + `\b`)
	match := re.FindIndex(content)
	if match == nil {
		return nil, nil
	}
	return dp.locationAtOffset(fileURI, string(content), match[0], len(className)), nil
}

func (dp *DefinitionProvider) findPropertyInFile(fileURI, className, propertyName string) (*Location, error) {
	content, err := os.ReadFile(dp.filePath(fileURI))
	if err != nil {
		return nil, err
	}
	body := string(content)

	classRe := regexp.MustCompile(`class\s+` + regexp.QuoteMeta(className) + `[^{]*\{([^}]*(?:\{[^}]*\}[^}]*)*)\}`)
	classMatch := classRe.FindStringSubmatch(body)
	if len(classMatch) <= 1 {
		return nil, nil
	}
	classContent := classMatch[1]

	propRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(propertyName) + `\s*[(:=]`)
	propMatch := propRe.FindStringIndex(classContent)
	if propMatch == nil {
		return nil, nil
	}

	classStart := strings.Index(body, classContent)
	return dp.locationAtOffset(fileURI, body, classStart+propMatch[0], len(propertyName)), nil
}

func (dp *DefinitionProvider) extractCssRule(cssContent, cssURI, className string) *Location {
	re := regexp.MustCompile(regexp.QuoteMeta(className) + `\s*:\s*\{`)
	match := re.FindStringIndex(cssContent)
	if match == nil {
		return nil
	}
	return dp.locationAtOffset(cssURI, cssContent, match[0], len(className))
}

func (dp *DefinitionProvider) locationAtOffset(uri, content string, offset, length int) *Location {
	before := content[:offset]
	lines := strings.Split(before, "\n")
	line := len(lines) - 1
	character := len(lines[len(lines)-1])
	return &Location{
		URI: uri,
		Range: Range{
			Start: Position{Line: line, Character: character},
			End:   Position{Line: line, Character: character + length},
		},
	}
}

func (dp *DefinitionProvider) currentComponentFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, " ") && strings.HasPrefix(trimmed, "$") {
			if fields := strings.Fields(trimmed); len(fields) > 0 && strings.HasPrefix(fields[0], "$") {
				return fields[0]
			}
		}
	}
	return ""
}

func (dp *DefinitionProvider) textInRange(content string, r Range) string {
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

func (dp *DefinitionProvider) filePath(uri string) string {
	return lspuri.URI(uri).Filename()
}

func (dp *DefinitionProvider) fileURI(path string) string {
	return string(lspuri.File(path))
}

var zeroRange = Range{}
