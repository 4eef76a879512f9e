package viewtree

import (
	"regexp"
	"strings"
)

type ParsedComponent struct {
	Name       string
	Range      Range
	Properties []ParsedProperty
	StartLine  int
	EndLine    int
}

type ParsedProperty struct {
	Name        string
	Range       Range
	Line        int
	IndentLevel int
	IsBinding   bool
	BindingType string // "one-way", "two-way", "override"
	Value       string
}

type ParsedNode struct {
	Type        string // "root_class", "class", "comp", "prop", "sub_prop"
	Name        string
	Range       Range
	Line        int
	IndentLevel int
}

type ParseResult struct {
	Components []ParsedComponent
	Nodes      []ParsedNode
	Errors     []ParseError
}

type ParseError struct {
	Message  string
	Range    Range
	Severity string // "error", "warning", "info"
}

var (
	propertyLineRe  = regexp.MustCompile(`^(\s+)([a-zA-Z_$][a-zA-Z0-9_?*]*)`)
	bindingTargetRe = regexp.MustCompile(`<=>\s*([a-zA-Z_][a-zA-Z0-9_?*]*)|<=\s*([a-zA-Z_][a-zA-Z0-9_?*]*)`)
	valueRe         = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_?*]*\s+(.+)$`)
	propertyNameRe  = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_?*]*$`)
	componentRefRes = []*regexp.Regexp{
		regexp.MustCompile(`<=\s+\w+\s+(\$\w+)`),
		regexp.MustCompile(`=>\s+\w+\s+(\$\w+)`),
		regexp.MustCompile(`<=>\s+\w+\s+(\$\w+)`),
	}
	componentInLineRes = append(append([]*regexp.Regexp{}, componentRefRes...), regexp.MustCompile(`^\s*(\$\w+)`))
)

// Parser parses the indentation-significant view.tree component definition
// language into a tree of components, properties, and navigable nodes.
type Parser struct {
	lines []string
}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content string) ParseResult {
	p.lines = strings.Split(content, "\n")

	result := ParseResult{
		Components: []ParsedComponent{},
		Nodes:      []ParsedNode{},
		Errors:     []ParseError{},
	}

	// componentStack tracks the innermost component owning each
	// indentation level, so a property line can find its parent by
	// walking the stack down from its own level.
	componentStack := make(map[int]*ParsedComponent)
	var rootComponent *ParsedComponent

	for lineIndex, line := range p.lines {
		if line == "" {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		indentLevel := p.getIndentLevel(line)

		if indentLevel == 0 && strings.HasPrefix(trimmed, "$") {
			if rootComponent != nil {
				rootComponent.EndLine = lineIndex - 1
				result.Components = append(result.Components, *rootComponent)
			}
			componentStack = make(map[int]*ParsedComponent)

			fields := strings.Fields(trimmed)
			if len(fields) == 0 {
				continue
			}
			firstWord := fields[0]
			wordRange := p.getWordRange(lineIndex, strings.Index(line, firstWord), firstWord)

			rootComponent = &ParsedComponent{
				Name:       firstWord,
				Range:      wordRange,
				Properties: []ParsedProperty{},
				StartLine:  lineIndex,
				EndLine:    lineIndex,
			}
			componentStack[0] = rootComponent

			nodeType := "class"
			if lineIndex == 0 && wordRange.Start.Character == 1 {
				nodeType = "root_class"
			}
			result.Nodes = append(result.Nodes, ParsedNode{
				Type: nodeType, Name: firstWord, Range: wordRange, Line: lineIndex, IndentLevel: 0,
			})
			continue
		}

		if indentLevel == 0 {
			continue
		}

		if componentRef := p.extractComponentReference(line); componentRef != "" {
			wordRange := p.getWordRange(lineIndex, strings.Index(line, componentRef), componentRef)
			componentStack[indentLevel] = &ParsedComponent{
				Name:       componentRef,
				Range:      wordRange,
				Properties: []ParsedProperty{},
				StartLine:  lineIndex,
				EndLine:    lineIndex,
			}
		}

		var currentComponent *ParsedComponent
		for level := indentLevel; level >= 0; level-- {
			if comp, ok := componentStack[level]; ok {
				currentComponent = comp
				break
			}
		}

		if currentComponent == nil {
			result.Errors = append(result.Errors, ParseError{
				Message: "property defined outside of component",
				Range: Range{
					Start: Position{Line: lineIndex, Character: 0},
					End:   Position{Line: lineIndex, Character: len(line)},
				},
				Severity: "error",
			})
			continue
		}

		match := propertyLineRe.FindStringSubmatch(line)
		var propertyName string
		if len(match) > 2 && match[2] != "" {
			propertyName = match[2]
		} else if fields := strings.Fields(trimmed); len(fields) > 0 && fields[0][0] >= '0' && fields[0][0] <= '9' {
			// a digit-led name is kept so ValidateSyntax can report it
			propertyName = fields[0]
		} else {
			continue
		}
		propertyStart := strings.Index(line, propertyName)
		wordRange := p.getWordRange(lineIndex, propertyStart, propertyName)

		isBinding := strings.Contains(trimmed, "<=") || strings.Contains(trimmed, "<=>")
		var bindingType, value string
		switch {
		case isBinding:
			if strings.Contains(trimmed, "<=>") {
				bindingType = "two-way"
			} else {
				bindingType = "one-way"
			}
			if m := bindingTargetRe.FindStringSubmatch(trimmed); len(m) > 1 {
				if m[1] != "" {
					value = m[1]
				} else if len(m) > 2 {
					value = m[2]
				}
			}
		case strings.Contains(trimmed, "^"):
			bindingType = "override"
		default:
			if m := valueRe.FindStringSubmatch(trimmed); len(m) > 1 {
				value = strings.TrimSpace(m[1])
			}
		}

		currentComponent.Properties = append(currentComponent.Properties, ParsedProperty{
			Name:        propertyName,
			Range:       wordRange,
			Line:        lineIndex,
			IndentLevel: indentLevel,
			IsBinding:   isBinding,
			BindingType: bindingType,
			Value:       value,
		})

		nodeType := "sub_prop"
		switch {
		case strings.HasPrefix(propertyName, "$"):
			nodeType = "comp"
		case indentLevel == 1:
			nodeType = "prop"
		}
		result.Nodes = append(result.Nodes, ParsedNode{
			Type: nodeType, Name: propertyName, Range: wordRange, Line: lineIndex, IndentLevel: indentLevel,
		})
	}

	if rootComponent != nil {
		rootComponent.EndLine = len(p.lines) - 1
		result.Components = append(result.Components, *rootComponent)
	}

	return result
}

func (p *Parser) GetNodeAtPosition(content string, position Position) *ParsedNode {
	result := p.Parse(content)
	for _, node := range result.Nodes {
		if p.isPositionInRange(position, node.Range) {
			return &node
		}
	}
	return nil
}

func (p *Parser) GetWordRangeAtPosition(content string, position Position) *Range {
	p.lines = strings.Split(content, "\n")
	if position.Line >= len(p.lines) {
		return nil
	}

	line := p.lines[position.Line]
	if line == "" {
		return nil
	}

	start, end := position.Character, position.Character
	for start > 0 && start-1 < len(line) && p.isWordCharacter(rune(line[start-1])) {
		start--
	}
	for end < len(line) && p.isWordCharacter(rune(line[end])) {
		end++
	}
	if start == end {
		return nil
	}
	return &Range{
		Start: Position{Line: position.Line, Character: start},
		End:   Position{Line: position.Line, Character: end},
	}
}

func (p *Parser) GetCurrentComponent(content string, position Position) string {
	p.lines = strings.Split(content, "\n")
	if position.Line >= len(p.lines) {
		return ""
	}

	if comp := p.extractComponentFromLine(p.lines[position.Line]); comp != "" {
		return comp
	}

	currentIndent := p.getIndentLevel(p.lines[position.Line])
	for i := position.Line - 1; i >= 0; i-- {
		line := p.lines[i]
		if line == "" {
			continue
		}
		lineIndent := p.getIndentLevel(line)
		if lineIndent < currentIndent {
			if comp := p.extractComponentFromLine(line); comp != "" {
				return comp
			}
		}
		if lineIndent == 0 {
			trimmed := strings.TrimSpace(line)
			if fields := strings.Fields(trimmed); len(fields) > 0 && strings.HasPrefix(fields[0], "$") {
				return fields[0]
			}
		}
	}
	return ""
}

func (p *Parser) extractComponentFromLine(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, re := range componentInLineRes {
		if m := re.FindStringSubmatch(trimmed); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

func (p *Parser) extractComponentReference(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, re := range componentRefRes {
		if m := re.FindStringSubmatch(trimmed); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

func (p *Parser) getIndentLevel(line string) int {
	indent := 0
	for _, char := range line {
		if char != '\t' {
			break
		}
		indent++
	}
	return indent
}

func (p *Parser) getWordRange(line, start int, word string) Range {
	return Range{
		Start: Position{Line: line, Character: start},
		End:   Position{Line: line, Character: start + len(word)},
	}
}

func (p *Parser) isPositionInRange(position Position, r Range) bool {
	if position.Line < r.Start.Line || position.Line > r.End.Line {
		return false
	}
	if position.Line == r.Start.Line && position.Character < r.Start.Character {
		return false
	}
	if position.Line == r.End.Line && position.Character > r.End.Character {
		return false
	}
	return true
}

func (p *Parser) isWordCharacter(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == '_' || char == '$' || char == '?' || char == '*'
}

// ValidateSyntax re-parses content and adds duplicate-component and
// invalid-property-name checks on top of the structural parse errors.
func (p *Parser) ValidateSyntax(content string) []ParseError {
	result := p.Parse(content)
	errs := make([]ParseError, len(result.Errors))
	copy(errs, result.Errors)

	byName := make(map[string][]ParsedComponent)
	for _, c := range result.Components {
		byName[c.Name] = append(byName[c.Name], c)
	}
	for name, comps := range byName {
		for i := 1; i < len(comps); i++ {
			errs = append(errs, ParseError{
				Message:  "duplicate component name: " + name,
				Range:    comps[i].Range,
				Severity: "warning",
			})
		}
	}

	for _, c := range result.Components {
		for _, prop := range c.Properties {
			if !p.isValidPropertyName(prop.Name) {
				errs = append(errs, ParseError{
					Message:  "invalid property name: " + prop.Name,
					Range:    prop.Range,
					Severity: "error",
				})
			}
		}
	}

	return errs
}

func (p *Parser) isValidPropertyName(name string) bool {
	return propertyNameRe.MatchString(name)
}
