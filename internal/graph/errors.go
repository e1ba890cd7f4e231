package graph

import (
	"errors"
	"fmt"

	"github.com/roach88/bigflow/internal/ir"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeUnknownNode indicates a connection referenced an unregistered id.
	ErrCodeUnknownNode ErrorCode = "UNKNOWN_NODE"

	// ErrCodeDuplicateRegistration indicates a caller-chosen key was registered twice.
	// The Store assigns ids itself and never raises this; it is reported by
	// definition loaders where authors choose node names.
	ErrCodeDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"
)

// UnknownNodeError is returned by Connect when either endpoint is absent.
// The connection is rejected atomically: no adjacency is touched and no
// observer is notified.
//
// Operations addressing a single node (level events) set Op and leave From
// and To zero.
type UnknownNodeError struct {
	From ir.NodeID
	To   ir.NodeID
	Op   string

	// Missing lists the ids that were not registered, from first.
	Missing []ir.NodeID
}

// Code returns ErrCodeUnknownNode.
func (e *UnknownNodeError) Code() ErrorCode {
	return ErrCodeUnknownNode
}

// Error implements the error interface.
func (e *UnknownNodeError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: node(s) %v not found", ErrCodeUnknownNode, e.Op, e.Missing)
	}
	return fmt.Sprintf("%s: cannot connect %d -> %d: node(s) %v not found",
		ErrCodeUnknownNode, int(e.From), int(e.To), e.Missing)
}

// DuplicateRegistrationError reports a name that was declared more than once.
type DuplicateRegistrationError struct {
	Name string
}

// Code returns ErrCodeDuplicateRegistration.
func (e *DuplicateRegistrationError) Code() ErrorCode {
	return ErrCodeDuplicateRegistration
}

// Error implements the error interface.
func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s: node %q is already registered", ErrCodeDuplicateRegistration, e.Name)
}

// IsUnknownNode returns true if err is an UnknownNodeError.
// Uses errors.As to handle wrapped errors.
func IsUnknownNode(err error) bool {
	var ue *UnknownNodeError
	return errors.As(err, &ue)
}

// IsDuplicateRegistration returns true if err is a DuplicateRegistrationError.
// Uses errors.As to handle wrapped errors.
func IsDuplicateRegistration(err error) bool {
	var de *DuplicateRegistrationError
	return errors.As(err, &de)
}
