package backtest

import "errors"

// Reasons a candidate regressor is discarded. They never leave the
// evaluator except as counts in Stats.
var (
	ErrEmptySample = errors.New("empty training sample")
	ErrSingular    = errors.New("singular or ill-conditioned system")
	ErrNonFinite   = errors.New("non-finite forecast")
)

// Errors returned to callers of SelectBest, Backtest and Project.
var (
	ErrNoViableCandidate = errors.New("no viable candidate regressor")
	ErrInvalidThreshold  = errors.New("threshold must be at least 1")
	ErrInvalidBaseIndex  = errors.New("base index must not be negative")
	ErrIndexOutOfRange   = errors.New("evaluation index out of range")
)
