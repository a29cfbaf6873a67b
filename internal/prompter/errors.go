package prompter

import "errors"

// Upstream failure classes. Each maps to a distinct HTTP status so callers
// can tell an unreachable completion API from one that answered garbage.
var (
	// ErrUpstreamUnreachable covers any failed provider call: network
	// errors, authentication failures and rate limiting alike.
	ErrUpstreamUnreachable = errors.New("completion provider unreachable")

	// ErrUpstreamMalformed means the provider answered but its content
	// could not be parsed as JSON.
	ErrUpstreamMalformed = errors.New("completion content is not valid JSON")

	// ErrUpstreamIncomplete means the content parsed as JSON but one or
	// both expected fields were missing or empty.
	ErrUpstreamIncomplete = errors.New("completion JSON missing required fields")
)
