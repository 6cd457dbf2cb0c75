package wizard

import "errors"

var (
	ErrNotAtResults = errors.New("session is not at the results step")
	ErrFlowMismatch = errors.New("session does not belong to flow")
)
