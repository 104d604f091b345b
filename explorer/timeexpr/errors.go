package timeexpr

import "fmt"

type InvalidExpressionError struct {
	Expression string
	Reason     string
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("invalid time expression %q: %s", e.Expression, e.Reason)
}

func invalid(expr string, format string, args ...any) error {
	return &InvalidExpressionError{Expression: expr, Reason: fmt.Sprintf(format, args...)}
}
