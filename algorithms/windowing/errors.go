package windowing

import "fmt"

// UnsupportedWindowError indicates a window name that is not in the registry
type UnsupportedWindowError struct {
	Name string
}

func (e *UnsupportedWindowError) Error() string {
	return fmt.Sprintf("unsupported window type %q", e.Name)
}

// InvalidLengthError indicates a length mismatch: either a non-positive
// window length or a padding target shorter than the source
type InvalidLengthError struct {
	Length int // source length
	Target int // requested length
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("invalid target length %d for source of length %d", e.Target, e.Length)
}
