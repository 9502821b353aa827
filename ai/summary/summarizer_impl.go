package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/paperseek/ai"
)

type llmSummarizer struct {
	llm     ai.LLMService
	timeout time.Duration
}

// NewSummarizer creates an LLM-backed summarizer.
func NewSummarizer(llmSvc ai.LLMService) Summarizer {
	return &llmSummarizer{
		llm:     llmSvc,
		timeout: 30 * time.Second,
	}
}

func (s *llmSummarizer) Summarize(ctx context.Context, abstract string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no LLM service configured", ai.ErrUpstream)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := []ai.Message{
		ai.SystemPrompt(summarySystemPrompt),
		ai.UserMessage(abstract),
	}

	content, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	summary := cleanSummary(content)
	if summary == "" {
		return "", fmt.Errorf("%w: summarizer returned empty text", ai.ErrUpstream)
	}
	return summary, nil
}

// cleanSummary strips markdown fences and prefixes some models insist on.
func cleanSummary(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "Summary:")
	return strings.TrimSpace(content)
}

const summarySystemPrompt = `You condense research-paper abstracts. Given an abstract, reply with a two to three sentence summary that preserves the problem, the method, and the main result. Reply with the summary text only, no preamble and no formatting.`
