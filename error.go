package timbre

import (
	"errors"
	"strings"
)

// Registry errors.
var (
	// ErrNotFound is returned when algorithm, node or port lookup fails.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration is returned when parameter value doesn't satisfy
	// its type or constraint, or algorithm failed to configure.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnknownParameter is returned when override names undeclared parameter.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// Connector and network errors.
var (
	// ErrTypeMismatch is returned when source and sink types differ.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrEmpty is returned when token is popped from empty sink.
	ErrEmpty = errors.New("sink is empty")
	// ErrMissingGenerator is returned when network root can't be a generator.
	ErrMissingGenerator = errors.New("missing generator")
	// ErrGraph is returned when network graph is malformed.
	ErrGraph = errors.New("graph error")
	// ErrNotBuilt is returned when network is used before it's built.
	ErrNotBuilt = errors.New("network is not built")
)

// Pool errors.
var (
	// ErrTypeConflict is returned when descriptor already holds another type.
	ErrTypeConflict = errors.New("type conflict")
	// ErrNamespaceConflict is returned when descriptor name is an ancestor
	// or descendant of existing descriptor.
	ErrNamespaceConflict = errors.New("namespace conflict")
	// ErrSetOnAdded is returned when single value is set for descriptor
	// which was added before.
	ErrSetOnAdded = errors.New("set on added descriptor")
	// ErrIntegrityViolation is returned when descriptor is present in more
	// than one store.
	ErrIntegrityViolation = errors.New("integrity violation")
	// ErrUnsupportedType is returned for values outside of supported types.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Transform errors.
var (
	// ErrInvalidInput is returned when transform of zero size is requested.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidSize is returned when transform size isn't even.
	ErrInvalidSize = errors.New("invalid size")
	// ErrShutdown is returned when transform subsystem was already shut down.
	ErrShutdown = errors.New("subsystem is shut down")
)

// Errors wraps errors that occur when multiple independent actions are
// failing.
type Errors []error

func (e Errors) Error() string {
	s := make([]string, 0, len(e))
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ", ")
}

// Is checks if any of errors match provided sentinel error.
func (e Errors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// Ret returns untyped nil if error list is empty.
func (e Errors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
