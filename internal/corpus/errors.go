package corpus

import "fmt"

// ParseError reports a structural problem in a corpus file, with the line
// number where the mismatch was detected.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// reservedKeywords collide with constraint-language syntax and cannot be
// used as placeholder or declared-variable names.
var reservedKeywords = map[string]bool{
	"true": true, "false": true, "null": true, "and": true, "or": true,
	"not": true, "in": true, "forall": true, "contains": true,
	"startswith": true, "endswith": true, "matches": true, "len": true,
	"type": true, "keys": true, "values": true, "sum": true, "min": true,
	"max": true, "abs": true, "unique": true, "lower": true, "upper": true,
	"number": true, "string": true, "bool": true, "array": true,
	"object": true, "env": true,
}

func isReservedKeyword(name string) bool { return reservedKeywords[name] }
