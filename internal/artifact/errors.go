package artifact

import "errors"

var (
	ErrNoArtifact  = errors.New("no artifact in slot")
	ErrUnknownSlot = errors.New("unknown artifact slot")
)
