package toolrun

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when the executable cannot be located.
// Its message contains "not found" so callers that only see text can still
// tell a missing tool apart from a tool that ran.
var ErrToolNotFound = errors.New("not found in PATH")

// ExecutionError wraps any other failure to start or wait for a tool.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the tool is not installed.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}
