package viewtree

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	componentNameRe     = regexp.MustCompile(`^\$[a-zA-Z_][a-zA-Z0-9_]*$`)
	leadingWhitespaceRe = regexp.MustCompile(`^(\s*)`)
	bindingTargetMatch  = regexp.MustCompile(`(<=?>?)\s*([a-zA-Z_$][a-zA-Z0-9_]*)?`)
	oneWayBindingRe     = regexp.MustCompile(`[^<]<=\s`)
)

// DiagnosticProvider re-parses a document and validates syntax,
// indentation, component references, and binding operators, publishing one
// diagnostic per issue found.
type DiagnosticProvider struct {
	scanner *Scanner
	parser  *Parser
}

func NewDiagnosticProvider(scanner *Scanner) *DiagnosticProvider {
	return &DiagnosticProvider{scanner: scanner, parser: NewParser()}
}

func (dp *DiagnosticProvider) Provide(document *TextDocument) ([]Diagnostic, error) {
	if !strings.HasSuffix(document.URI, ".view.tree") {
		return nil, nil
	}

	content := document.Text
	result := dp.parser.Parse(content)

	var diagnostics []Diagnostic
	for _, parseErr := range result.Errors {
		diagnostics = append(diagnostics, Diagnostic{
			Severity: mapSeverity(parseErr.Severity),
			Range:    parseErr.Range,
			Message:  parseErr.Message,
			Source:   "view.tree",
		})
	}

	diagnostics = append(diagnostics, dp.validateSyntax(content)...)
	diagnostics = append(diagnostics, dp.validateComponents(result.Components)...)
	diagnostics = append(diagnostics, dp.validateProperties(result.Components, content)...)
	diagnostics = append(diagnostics, dp.validateIndentation(content)...)
	diagnostics = append(diagnostics, dp.validateBindings(content)...)
	return diagnostics, nil
}

func (dp *DiagnosticProvider) validateSyntax(content string) []Diagnostic {
	var out []Diagnostic
	for lineIndex, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		if strings.HasPrefix(trimmed, "$") {
			if fields := strings.Fields(trimmed); len(fields) > 0 && !componentNameRe.MatchString(fields[0]) {
				name := fields[0]
				start := strings.Index(line, name)
				out = append(out, diag(lineIndex, start, start+len(name), DiagnosticSeverityError,
					fmt.Sprintf("invalid component name: %s (must start with $ followed by letters, numbers, or underscores)", name)))
			}
		}

		leading := leadingWhitespaceRe.FindString(line)
		if strings.Contains(leading, "\t") && strings.Contains(leading, " ") {
			out = append(out, diag(lineIndex, 0, len(leading), DiagnosticSeverityWarning,
				"mixed tabs and spaces in indentation"))
		}

		if strings.Contains(trimmed, "<=") {
			if m := bindingTargetMatch.FindStringSubmatch(trimmed); len(m) >= 2 && m[1] != "" && (len(m) < 3 || m[2] == "") {
				idx := strings.Index(line, m[1])
				out = append(out, diag(lineIndex, idx, idx+len(m[1]), DiagnosticSeverityError,
					"binding operator must be followed by a property name"))
			}
		}
	}
	return out
}

func (dp *DiagnosticProvider) validateComponents(components []ParsedComponent) []Diagnostic {
	var out []Diagnostic
	for _, component := range components {
		if !dp.scanner.HasComponent(component.Name) && !strings.HasPrefix(component.Name, "$mol_") {
			out = append(out, Diagnostic{
				Severity: DiagnosticSeverityWarning,
				Range:    component.Range,
				Message:  fmt.Sprintf("component %q not found in project", component.Name),
				Source:   "view.tree",
			})
		}

		first := true
		for _, other := range components {
			if other.Name != component.Name {
				continue
			}
			if first {
				first = false
				continue
			}
			out = append(out, Diagnostic{
				Severity: DiagnosticSeverityError,
				Range:    other.Range,
				Message:  fmt.Sprintf("duplicate component definition: %s", component.Name),
				Source:   "view.tree",
			})
		}
	}
	return out
}

func (dp *DiagnosticProvider) validateProperties(components []ParsedComponent, content string) []Diagnostic {
	var out []Diagnostic
	reserved := map[string]bool{"constructor": true, "prototype": true, "__proto__": true}

	for _, component := range components {
		for _, property := range component.Properties {
			if !propertyNameRe.MatchString(property.Name) {
				out = append(out, Diagnostic{
					Severity: DiagnosticSeverityError,
					Range:    property.Range,
					Message:  fmt.Sprintf("invalid property name: %s", property.Name),
					Source:   "view.tree",
				})
			}
			if reserved[property.Name] {
				out = append(out, Diagnostic{
					Severity: DiagnosticSeverityError,
					Range:    property.Range,
					Message:  fmt.Sprintf("reserved property name: %s", property.Name),
					Source:   "view.tree",
				})
			}

			if property.IsBinding && property.Value != "" && !propertyNameRe.MatchString(property.Value) {
				lines := strings.Split(content, "\n")
				if property.Line < len(lines) {
					if idx := strings.Index(lines[property.Line], property.Value); idx >= 0 {
						out = append(out, diag(property.Line, idx, idx+len(property.Value), DiagnosticSeverityError,
							fmt.Sprintf("invalid binding target: %s", property.Value)))
					}
				}
			}
		}

		for _, property := range component.Properties {
			first := true
			for _, other := range component.Properties {
				if other.Name != property.Name {
					continue
				}
				if first {
					first = false
					continue
				}
				out = append(out, Diagnostic{
					Severity: DiagnosticSeverityWarning,
					Range:    other.Range,
					Message:  fmt.Sprintf("duplicate property: %s", property.Name),
					Source:   "view.tree",
				})
			}
		}
	}
	return out
}

func (dp *DiagnosticProvider) validateIndentation(content string) []Diagnostic {
	var out []Diagnostic
	lastIndent := 0

	for lineIndex, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		indent := indentLevel(line)
		if strings.HasPrefix(trimmed, "$") && indent > 0 {
			out = append(out, diag(lineIndex, 0, indent, DiagnosticSeverityError, "component definitions should not be indented"))
		}
		if !strings.HasPrefix(trimmed, "$") && indent == 0 {
			out = append(out, diag(lineIndex, 0, 1, DiagnosticSeverityError, "properties must be indented under their component"))
		}
		if indent > lastIndent+1 {
			out = append(out, diag(lineIndex, 0, indent, DiagnosticSeverityWarning,
				"indentation increased by more than one level"))
		}
		lastIndent = indent
	}
	return out
}

func (dp *DiagnosticProvider) validateBindings(content string) []Diagnostic {
	var out []Diagnostic
	malformed := []struct{ pattern, message string }{
		{`[^<]=[^>]`, "use <= or <=> for bindings, not ="},
		{`<[^=]`, "incomplete binding operator, use <= or <=>"},
		{`>[^=]`, "invalid operator, use <= or <=>"},
		{`<=\s*$`, "binding operator <= must be followed by a property name"},
		{`<=>\s*$`, "binding operator <=> must be followed by a property name"},
	}

	for lineIndex, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		for _, check := range malformed {
			re := regexp.MustCompile(check.pattern)
			match := re.FindString(trimmed)
			if match == "" {
				continue
			}
			idx := strings.Index(line, match)
			out = append(out, diag(lineIndex, idx, idx+len(match), DiagnosticSeverityError, check.message))
		}

		if oneWayBindingRe.MatchString(trimmed) && strings.Contains(trimmed, "<=>") {
			out = append(out, diag(lineIndex, 0, len(line), DiagnosticSeverityError,
				"cannot use both <= and <=> operators on the same line"))
		}
	}
	return out
}

func diag(line, startChar, endChar int, severity DiagnosticSeverity, message string) Diagnostic {
	return Diagnostic{
		Range: Range{
			Start: Position{Line: line, Character: startChar},
			End:   Position{Line: line, Character: endChar},
		},
		Severity: severity,
		Message:  message,
		Source:   "view.tree",
	}
}

func indentLevel(line string) int {
	n := 0
	for _, char := range line {
		if char != '\t' && char != ' ' {
			break
		}
		n++
	}
	return n
}

func mapSeverity(severity string) DiagnosticSeverity {
	switch severity {
	case "error":
		return DiagnosticSeverityError
	case "warning":
		return DiagnosticSeverityWarning
	default:
		return DiagnosticSeverityInformation
	}
}
