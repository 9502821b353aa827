package ai

import "errors"

// ErrUpstream marks failures of the external embedding or LLM services
// (network errors, rate limits, malformed responses). Callers must surface
// these as explicit failures, never as an empty result set.
var ErrUpstream = errors.New("upstream service failure")
