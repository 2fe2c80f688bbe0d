package operation

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by wrapped calls before Start has finished the
// recovery pass, and after Stop.
var ErrNotReady = errors.New("executor not ready")

// PendingError is returned by a business function whose outcome will be
// delivered later through Executor.Resolve. Ref is the external reference
// the result will arrive under; the operation stays in_progress.
type PendingError struct {
	Ref string
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("operation pending on %q", e.Ref)
}
