package engine

import (
	"errors"
	"fmt"
)

// LimitError reports that a render pass was rejected because the
// combined annotation count exceeded the configured ceiling. The cap
// guards the linear coverage filter against pathological inputs; it is
// the only way a pass can fail.
type LimitError struct {
	Count int
	Limit int
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("annotation count %d exceeds limit %d", e.Count, e.Limit)
}

// IsLimitError reports whether err is a LimitError, unwrapping as
// needed.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}
