package asq

import "github.com/tmc/langchaingo/llms"

// BuildMessages builds the message sequence: an optional system entry
// followed by exactly one user entry holding prompt verbatim.
func BuildMessages(system, prompt string) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, 2)
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
}

// Request is a fully assembled completion request.
type Request struct {
	Model       string
	Messages    []llms.MessageContent
	Temperature float64
	// Stream is always false; asq waits for the complete answer.
	Stream   bool
	JSONMode bool
}

// NewRequest assembles a non-streaming completion request.
func NewRequest(model string, messages []llms.MessageContent, temperature float64, jsonMode bool) Request {
	return Request{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		JSONMode:    jsonMode,
	}
}

// CallOptions converts the request into langchaingo call options. No
// streaming callback is ever attached.
func (r Request) CallOptions() []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithModel(r.Model),
		llms.WithTemperature(r.Temperature),
	}
	if r.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}
