package expr

import "fmt"

// TypeError reports a value of the wrong dynamic type being used where
// another type was required.
type TypeError struct {
	Expected string
	Got      string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, got %s", e.Expected, e.Got)
}

// UndefinedVariableError reports a reference to a name with no binding in
// the evaluation environment.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Name)
}

// UndefinedFunctionError reports a call to an unknown builtin.
type UndefinedFunctionError struct {
	Name string
}

func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("undefined function: %s", e.Name)
}

// InvalidRegexError reports a `matches` right-hand side that failed to
// compile as a regular expression.
type InvalidRegexError struct {
	Pattern string
	Cause   error
}

func (e *InvalidRegexError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Pattern, e.Cause)
}

func (e *InvalidRegexError) Unwrap() error { return e.Cause }

// DivisionByZeroError reports `/` with a zero right-hand operand.
type DivisionByZeroError struct{}

func (e *DivisionByZeroError) Error() string { return "division by zero" }

// WrongArgCountError reports a builtin function called with the wrong
// number of arguments.
type WrongArgCountError struct {
	Function string
	Expected int
	Got      int
}

func (e *WrongArgCountError) Error() string {
	return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Function, e.Expected, e.Got)
}

// IndexOutOfBoundsError reports an array/string index outside the valid
// range, after negative-index normalization.
type IndexOutOfBoundsError struct {
	Index int
	Len    int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds (length %d)", e.Index, e.Len)
}

// KeyNotFoundError reports a missing object key on indexing/dot-access.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// ParseError reports a syntax error in the constraint expression text.
type ParseError struct {
	Message  string
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}
