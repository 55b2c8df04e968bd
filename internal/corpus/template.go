package corpus

import (
	"fmt"
	"strings"
)

// StripTypeAnnotations removes `: type` from placeholders, turning
// `{{ name : type }}` into `{{ name }}`, the first step of pattern
// matching (§4.3).
func StripTypeAnnotations(template string) string {
	segs, err := Split(template)
	if err != nil {
		return template
	}
	var sb strings.Builder
	for _, seg := range segs {
		if seg.IsPlaceholder {
			sb.WriteString("{{ ")
			sb.WriteString(seg.Name)
			sb.WriteString(" }}")
		} else {
			sb.WriteString(seg.Literal)
		}
	}
	return sb.String()
}

// Split splits a template string into literal and placeholder segments by
// scanning for non-nested `{{ ... }}` spans.
func Split(template string) ([]Segment, error) {
	var segs []Segment
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			if rest != "" {
				segs = append(segs, Segment{Literal: rest})
			}
			return segs, nil
		}
		if start > 0 {
			segs = append(segs, Segment{Literal: rest[:start]})
		}
		rest = rest[start+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return nil, fmt.Errorf("unterminated placeholder")
		}
		inner := strings.TrimSpace(rest[:end])
		name, typ, err := parsePlaceholderBody(inner)
		if err != nil {
			return nil, err
		}
		segs = append(segs, Segment{IsPlaceholder: true, Name: name, Type: typ})
		rest = rest[end+2:]
	}
}

// parsePlaceholderBody parses the text between `{{` and `}}`: `name` or
// `name : type`, whitespace optional around the colon.
func parsePlaceholderBody(inner string) (string, VarType, error) {
	name := inner
	typeStr := ""
	if idx := strings.Index(inner, ":"); idx >= 0 {
		name = strings.TrimSpace(inner[:idx])
		typeStr = strings.TrimSpace(inner[idx+1:])
	}
	if name == "" {
		return "", TypeNone, fmt.Errorf("empty placeholder name")
	}
	if !isValidIdent(name) {
		return "", TypeNone, fmt.Errorf("invalid placeholder name %q", name)
	}
	if typeStr == "" {
		return name, TypeNone, nil
	}
	typ, ok := parseVarType(typeStr)
	if !ok {
		return "", TypeNone, fmt.Errorf("unknown placeholder type %q", typeStr)
	}
	return name, typ, nil
}

func parseVarType(s string) (VarType, bool) {
	switch s {
	case "number":
		return TypeNumber, true
	case "string":
		return TypeString, true
	case "json string":
		return TypeJSONString, true
	case "json bool":
		return TypeJSONBool, true
	case "json array":
		return TypeJSONArray, true
	case "json object":
		return TypeJSONObject, true
	}
	return TypeNone, false
}

func isValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// extractDeclaredVars walks the expected-output template in first-appearance
// order, taking the first declaration when a name repeats, and rejecting
// reserved keywords and malformed names at parse time.
func extractDeclaredVars(template string, file string, line int) ([]VarDecl, error) {
	segs, err := Split(template)
	if err != nil {
		return nil, &ParseError{File: file, Line: line, Message: err.Error()}
	}
	var decls []VarDecl
	seen := map[string]bool{}
	for _, seg := range segs {
		if !seg.IsPlaceholder {
			continue
		}
		if isReservedKeyword(seg.Name) {
			return nil, &ParseError{File: file, Line: line, Message: fmt.Sprintf("placeholder name %q is a reserved keyword", seg.Name)}
		}
		if seen[seg.Name] {
			continue
		}
		seen[seg.Name] = true
		decls = append(decls, VarDecl{Name: seg.Name, Type: seg.Type})
	}
	return decls, nil
}
