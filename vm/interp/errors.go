package interp

import (
	"fmt"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
)

// Panic codes carried by Panic(uint256).
const (
	PanicAssert       = 0x01
	PanicOverflow     = 0x11
	PanicDivisionZero = 0x12
	PanicEnumRange    = 0x21
	PanicStorageBytes = 0x22
	PanicPopEmpty     = 0x31
	PanicOutOfBounds  = 0x32
	PanicAllocation   = 0x41
	PanicZeroFunction = 0x51
)

// InternalError is an engine defect or an unmodelled feature. It aborts the whole
// driving operation and is never turned into a revert.
type InternalError struct {
	Node ast.Node
	Err  error
}

func (e *InternalError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("internal error at node %d: %v", e.Node.NodeID(), e.Err)
	}
	return "internal error: " + e.Err.Error()
}

func (e *InternalError) Cause() error { return e.Err }

func internalf(node ast.Node, format string, args ...interface{}) error {
	return &InternalError{Node: node, Err: errors.Errorf(format, args...)}
}

func internal(node ast.Node, err error) error {
	if IsInternal(err) {
		return err
	}
	return &InternalError{Node: node, Err: err}
}

// IsInternal reports whether err, or anything it wraps, is an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

type ErrorKind int

const (
	KindPanic ErrorKind = iota
	KindRevert
)

func (k ErrorKind) String() string {
	if k == KindPanic {
		return "panic"
	}
	return "revert"
}

// RuntimeError is a failure defined by the interpreted program. It unwinds to the
// nearest external call boundary and becomes a reverted call with Payload as data.
type RuntimeError struct {
	Kind    ErrorKind
	Code    uint64
	Payload []byte
}

func (e *RuntimeError) Error() string {
	if e.Kind == KindPanic {
		return fmt.Sprintf("panic 0x%02x", e.Code)
	}
	if msg, _, ok := abi.DecodeRevert(e.Payload); ok && msg != nil {
		return fmt.Sprintf("revert: %s", msg)
	}
	return "revert: " + common.Encode(e.Payload)
}

// AsRuntimeError extracts the runtime error err carries, if any.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// panicError builds a panic; dialects without typed panics revert with no data.
func (in *Interpreter) panicError(code uint64) *RuntimeError {
	e := &RuntimeError{Kind: KindPanic, Code: code}
	if in.infer.TypedPanics() {
		e.Payload = abi.EncodePanic(code)
	}
	return e
}

func revertError(payload []byte) *RuntimeError {
	return &RuntimeError{Kind: KindRevert, Payload: payload}
}

// classify maps errors raised by views to the runtime error the program observes.
// Anything unrecognised is internal.
func (in *Interpreter) classify(node ast.Node, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsRuntimeError(err); ok {
		return err
	}
	if IsInternal(err) {
		return err
	}
	switch errors.Cause(err) {
	case values.ErrOutOfBounds:
		return in.panicError(PanicOutOfBounds)
	case values.ErrPopEmpty:
		return in.panicError(PanicPopEmpty)
	case values.ErrAllocation:
		return in.panicError(PanicAllocation)
	case values.ErrWriteProtection:
		return revertError(nil)
	}
	return internal(node, err)
}
