package generate

import "errors"

// ErrEmptyCorpus indicates a corpus without any text.
var ErrEmptyCorpus = errors.New("corpus text is empty")
