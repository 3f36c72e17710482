package ai

import (
	"context"
	"fmt"
	"strings"

	"papermind/internal/summarizer"
)

// SummarizerConfig points the neural backends at an OpenAI-compatible
// endpoint. Models maps each neural backend to the model id served there.
type SummarizerConfig struct {
	BaseURL string
	APIKey  string
	Models  map[summarizer.Backend]string
}

const summarizePrompt = "You are an abstractive summarization model. Summarize the text given by the user " +
	"in at least %d and at most %d words. Answer with the summary only, in plain prose."

// NeuralSummarizer is an abstractive summarizer backed by a chat completions model.
type NeuralSummarizer struct {
	client *OpenAICompatibleClient
	chat   ChatConfig
	gate   *Gate
}

func (s *NeuralSummarizer) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize input is empty")
	}
	chat := s.chat
	// Words are about 1.3 tokens; leave headroom so the model can finish a sentence.
	chat.MaxTokens = maxLength * 2

	messages := []ChatMessage{
		{Role: "system", Content: fmt.Sprintf(summarizePrompt, minLength, maxLength)},
		{Role: "user", Content: text},
	}
	var out string
	err := s.gate.Do(ctx, "summarize", func(ctx context.Context) error {
		var err error
		out, err = s.client.Complete(ctx, chat, messages)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// NewSummarizerLoader builds the loader used by summarizer.Manager. Loading
// validates the endpoint and the model id of the requested backend.
func NewSummarizerLoader(client *OpenAICompatibleClient, cfg SummarizerConfig, gate *Gate) summarizer.Loader {
	return func(_ context.Context, backend summarizer.Backend) (summarizer.Abstractive, error) {
		if !backend.Neural() {
			return nil, fmt.Errorf("backend %s is not neural", backend)
		}
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("summarizer base url is empty")
		}
		model := strings.TrimSpace(cfg.Models[backend])
		if model == "" {
			return nil, fmt.Errorf("no model configured for backend %s", backend)
		}
		return &NeuralSummarizer{
			client: client,
			chat:   ChatConfig{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: model},
			gate:   gate,
		}, nil
	}
}
