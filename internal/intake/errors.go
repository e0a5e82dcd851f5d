package intake

import (
	"fmt"
	"math"
)

// Kind classifies a rejection raised by the engine.
type Kind int

const (
	// TooLarge rejects a candidate whose size exceeds Config.MaxSizeBytes.
	TooLarge Kind = iota
	// UnsupportedType rejects a candidate matching none of the configured
	// type rules.
	UnsupportedType
	// CapacityExceeded rejects a valid candidate for which no staging
	// slot is left.
	CapacityExceeded
	// IndexOutOfRange guards Remove against indexes outside the staged
	// set, a well-behaved caller never triggers it.
	IndexOutOfRange
)

func (k Kind) String() string {
	switch k {
	case TooLarge:
		return "TooLarge"
	case UnsupportedType:
		return "UnsupportedType"
	case CapacityExceeded:
		return "CapacityExceeded"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	default:
		return "Unknown"
	}
}

// Error is a single rejection with a user-facing message. The engine
// recovers every rejection locally, SubmitBatch surfaces the first one
// per batch as the transient LastError instead of returning it.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func tooLargeErr(name string, limit int64) *Error {
	mb := int64(math.Round(float64(limit) / (1 << 20)))
	return &Error{
		Kind:    TooLarge,
		Message: fmt.Sprintf("File %q exceeds the maximum size of %d MB.", name, mb),
	}
}

func unsupportedTypeErr(name string) *Error {
	return &Error{
		Kind:    UnsupportedType,
		Message: fmt.Sprintf("File %q is not a supported file type.", name),
	}
}

func capacityErr(name string, limit int) *Error {
	return &Error{
		Kind:    CapacityExceeded,
		Message: fmt.Sprintf("File %q exceeds the maximum of %d staged files.", name, limit),
	}
}

func indexErr(i, n int) *Error {
	return &Error{
		Kind:    IndexOutOfRange,
		Message: fmt.Sprintf("entry index %d out of range [0, %d)", i, n),
	}
}
