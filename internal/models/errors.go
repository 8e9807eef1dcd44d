package models

import "errors"

// Error taxonomy shared across the engine. Failures are contained per token
// and per cycle; none of these is ever fatal to the process.
var (
	// ErrSourceUnavailable means the trade-data source could not serve a
	// request after bounded retries. The token is skipped for the cycle.
	ErrSourceUnavailable = errors.New("trade source unavailable")

	// ErrRateLimited means the shared source quota was exhausted. All tokens
	// pause for a global cool-down.
	ErrRateLimited = errors.New("trade source rate limited")

	// ErrMessageNotFound means the messaging service reports the referenced
	// message as deleted or inaccessible.
	ErrMessageNotFound = errors.New("message not found")

	// ErrTokenNotFound means the token row disappeared from the registry,
	// typically removed by the user mid-cycle.
	ErrTokenNotFound = errors.New("tracked token not found")
)
