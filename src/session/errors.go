package session

import "errors"

// ErrConfiguration marks invalid session construction parameters or
// malformed client params. It is never retried.
var ErrConfiguration = errors.New("invalid session configuration")
