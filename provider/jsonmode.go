package provider

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// JSONInstruction is merged into the system message for backends whose API
// has no response_format switch.
const JSONInstruction = "Respond only with a single valid JSON object and no surrounding prose."

// jsonModeModel honours llms.WithJSONMode for a model that ignores
// CallOptions.JSONMode, by constraining the system message instead.
type jsonModeModel struct {
	llms.Model
}

func (m jsonModeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) { //nolint:lll
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.JSONMode {
		messages = withJSONInstruction(messages)
	}
	return m.Model.GenerateContent(ctx, messages, options...)
}

func (m jsonModeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// withJSONInstruction returns a copy of messages whose leading system
// message ends with JSONInstruction. The input slice is left untouched.
func withJSONInstruction(messages []llms.MessageContent) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages)+1)
	if len(messages) > 0 && messages[0].Role == llms.ChatMessageTypeSystem {
		var texts []string
		for _, part := range messages[0].Parts {
			if text, ok := part.(llms.TextContent); ok && strings.TrimSpace(text.Text) != "" {
				texts = append(texts, text.Text)
			}
		}
		texts = append(texts, JSONInstruction)
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, strings.Join(texts, "\n\n")))
		return append(out, messages[1:]...)
	}
	out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, JSONInstruction))
	return append(out, messages...)
}
