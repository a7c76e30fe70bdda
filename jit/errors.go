package jit

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rvjit/ir"
)

// ErrInvalidOp is wrapped by every RoutingError.
var ErrInvalidOp = errors.New("invalid IR op")

// RoutingError reports an instruction that reached a handler that does not
// own its opcode.
type RoutingError struct {
	Family ir.Family
	Op     ir.Op
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("%v %s in %s handler", ErrInvalidOp, e.Op, e.Family)
}

// Unwrap returns ErrInvalidOp.
func (e *RoutingError) Unwrap() error {
	return ErrInvalidOp
}
