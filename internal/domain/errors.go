package domain

import "errors"

// Error taxonomy for the agent loop. All of these are handled inside the
// loop and surface to adapters only as well-formed response text.
var (
	ErrUnknownFunction     = errors.New("unknown function")
	ErrInvalidArguments    = errors.New("invalid arguments")
	ErrSimulationFailed    = errors.New("simulation failed")
	ErrUpstreamUnavailable = errors.New("upstream model unavailable")
	ErrRoundLimitExceeded  = errors.New("function round limit exceeded")
	ErrSessionNotFound     = errors.New("session not found")
)
