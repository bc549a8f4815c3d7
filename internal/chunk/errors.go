package chunk

import "errors"

// ErrTargetTooSmall indicates a target field smaller than the number of
// chunks, which cannot give every chunk at least one item.
var ErrTargetTooSmall = errors.New("target smaller than chunk count")
