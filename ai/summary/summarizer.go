// Package summary condenses paper abstracts with an LLM so a second,
// coarser-grained vector representation can be indexed alongside the
// full-text one.
package summary

import "context"

// Summarizer produces a condensed version of a paper abstract.
type Summarizer interface {
	Summarize(ctx context.Context, abstract string) (string, error)
}
