package prompt

import "errors"

// ErrInvalidRequest indicates a prompt request that cannot be rendered
// (zero mode, unsupported language or invalid target).
var ErrInvalidRequest = errors.New("invalid prompt request")
