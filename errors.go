package max3100

import (
	"errors"
	"fmt"
)

// ErrorKind classifies driver failures
type ErrorKind int

const (
	KindTransport       ErrorKind = iota + 1 // SPI transfer or bus setup failed
	KindOverrun                              // host ring buffer full on store
	KindInvalidArgument                      // caller supplied a bad value
	KindInvalidState                         // operation not valid in the handle's state
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindOverrun:
		return "overrun"
	case KindInvalidArgument:
		return "invalid argument"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Kind sentinels, matched through errors.Is against any *Error of that kind
var (
	ErrTransport       = &Error{Kind: KindTransport}
	ErrOverrun         = &Error{Kind: KindOverrun}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
)

// Predefined causes
var (
	ErrDeviceClosed  = errors.New("max3100 device is closed")
	ErrAlreadyOpen   = errors.New("max3100 device is already open")
	ErrBufferFull    = errors.New("receive buffer full")
	ErrByteRange     = errors.New("value out of byte range 0-255")
	ErrInvalidConfig = errors.New("invalid max3100 configuration")
	ErrNoFd          = errors.New("transport has no file descriptor")
)

// Error is returned by every Device operation that fails.
// Nothing is retried internally; the handle stays usable unless Kind is
// KindInvalidState.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return "max3100: " + e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("max3100 %s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("max3100: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("max3100 %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is a kind sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}
