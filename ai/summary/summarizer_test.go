package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/paperseek/ai"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(_ context.Context, _ []ai.Message) (string, error) {
	return f.response, f.err
}

func TestSummarize(t *testing.T) {
	s := NewSummarizer(&fakeLLM{response: "A short summary of the paper."})

	got, err := s.Summarize(context.Background(), "A very long abstract about neural networks.")

	require.NoError(t, err)
	assert.Equal(t, "A short summary of the paper.", got)
}

func TestSummarizeCleansDecoration(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{"markdown fences", "```\nThe summary.\n```", "The summary."},
		{"summary prefix", "Summary: The summary.", "The summary."},
		{"surrounding whitespace", "  The summary.\n", "The summary."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummarizer(&fakeLLM{response: tt.response})
			got, err := s.Summarize(context.Background(), "abstract")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSummarizePropagatesUpstreamError(t *testing.T) {
	s := NewSummarizer(&fakeLLM{err: ai.ErrUpstream})

	_, err := s.Summarize(context.Background(), "abstract")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUpstream))
}

func TestSummarizeEmptyResponse(t *testing.T) {
	s := NewSummarizer(&fakeLLM{response: "   "})

	_, err := s.Summarize(context.Background(), "abstract")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUpstream))
}

func TestSummarizeNilLLM(t *testing.T) {
	s := NewSummarizer(nil)

	_, err := s.Summarize(context.Background(), "abstract")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUpstream))
}
