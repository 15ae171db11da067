package asq

import (
	"context"
	"log/slog"

	"github.com/IMBotPlatform/asq/provider"
	"github.com/tmc/langchaingo/llms"
)

// stubModel is a deterministic llms.Model that records what it was called with.
type stubModel struct {
	response string
	err      error
	choices  []*llms.ContentChoice

	calls    int
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (s *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) { //nolint:lll
	s.calls++
	s.messages = messages
	s.opts = llms.CallOptions{}
	for _, opt := range options {
		opt(&s.opts)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.choices != nil {
		return &llms.ContentResponse{Choices: s.choices}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.response}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

// stubFactory returns a provider.Factory that always yields model and records the ref.
func stubFactory(model llms.Model, got *provider.Ref) provider.Factory {
	return func(ref provider.Ref, _ *slog.Logger) (llms.Model, error) {
		if got != nil {
			*got = ref
		}
		return model, nil
	}
}

type countingProgress struct {
	starts, stops int
}

func (p *countingProgress) Start() { p.starts++ }
func (p *countingProgress) Stop()  { p.stops++ }

// failingReader fails every read, standing in for an unreadable stdin.
type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }
