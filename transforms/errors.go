package transforms

import "fmt"

// InvalidConfigError indicates a bad parameter combination. All
// configuration errors surface eagerly at construction, never on the
// first Compute call.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// InvalidShapeError indicates an input tensor of the wrong rank or shape
type InvalidShapeError struct {
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid input shape: %s", e.Reason)
}
