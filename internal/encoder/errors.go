package encoder

import "errors"

var ErrUnknownFormat = errors.New("unknown output format")
