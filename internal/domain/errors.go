package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable, test-friendly classification of pipeline failures.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	// KindIO: image or directory unreadable
	KindIO
	// KindShape: degenerate image or feature vector
	KindShape
	// KindCircuit: malformed circuit input
	KindCircuit
	// KindEmptyInput: empty vector handed to the scorer
	KindEmptyInput
	// KindCrypto: key generation, seal or open failure
	KindCrypto
	// KindRemoteCall: chat-completion failure or timeout
	KindRemoteCall
	// KindPersistence: record append failure
	KindPersistence
)

var kindNames = map[ErrorKind]string{
	KindUnknown:     "UnknownError",
	KindIO:          "IOError",
	KindShape:       "ShapeError",
	KindCircuit:     "CircuitError",
	KindEmptyInput:  "EmptyInputError",
	KindCrypto:      "CryptoError",
	KindRemoteCall:  "RemoteCallError",
	KindPersistence: "PersistenceError",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error carries a kind, the failing operation and the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindIO}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err stays nil.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
