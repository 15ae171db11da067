// Package provider resolves asq model identifiers to langchaingo models.
//
// Identifiers take the form "provider/model" (for example
// "anthropic/claude-sonnet-4-20250514" or "ollama/llama3.1"). Bare names are
// accepted for OpenAI and Anthropic models. Credentials are read from each
// provider's standard environment variable; asq never takes API keys on the
// command line. ANTHROPIC_BASE_URL and OLLAMA_HOST override the default
// endpoints; ASQ_CLAUDE_CLI and ASQ_CLAUDE_PERMISSION_MODE configure the
// claude-code backend.
package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/IMBotPlatform/asq/provider/claudecode"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names.
const (
	OpenAI     = "openai"
	Anthropic  = "anthropic"
	OpenRouter = "openrouter"
	Groq       = "groq"
	DeepSeek   = "deepseek"
	Ollama     = "ollama"
	ClaudeCode = "claude-code"
)

var (
	// ErrUnknownProvider is returned for a "provider/model" id with an unsupported provider.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownModel is returned for a bare model name that cannot be mapped to a provider.
	ErrUnknownModel = errors.New("unknown model")
	// ErrMissingAPIKey is returned when an OpenAI-compatible provider has no token configured.
	ErrMissingAPIKey = errors.New("missing api key")
)

type kind int

const (
	kindOpenAI kind = iota
	kindAnthropic
	kindOllama
	kindClaudeCode
)

type backend struct {
	kind kind
	// baseURL 与 tokenEnv 仅用于兼容 OpenAI 协议的第三方服务。
	baseURL  string
	tokenEnv string
}

var backends = map[string]backend{
	OpenAI:     {kind: kindOpenAI},
	Anthropic:  {kind: kindAnthropic},
	OpenRouter: {kind: kindOpenAI, baseURL: "https://openrouter.ai/api/v1", tokenEnv: "OPENROUTER_API_KEY"},
	Groq:       {kind: kindOpenAI, baseURL: "https://api.groq.com/openai/v1", tokenEnv: "GROQ_API_KEY"},
	DeepSeek:   {kind: kindOpenAI, baseURL: "https://api.deepseek.com/v1", tokenEnv: "DEEPSEEK_API_KEY"},
	Ollama:     {kind: kindOllama},
	ClaudeCode: {kind: kindClaudeCode},
}

// Ref is a parsed model identifier.
type Ref struct {
	Provider string
	// Name is the model name as the provider expects it.
	Name string
}

func (r Ref) String() string {
	return r.Provider + "/" + r.Name
}

// Factory builds the completion model for a resolved Ref.
type Factory func(ref Ref, logger *slog.Logger) (llms.Model, error)

// ParseModel parses a model identifier.
func ParseModel(id string) (Ref, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Ref{}, fmt.Errorf("%w: empty model identifier", ErrUnknownModel)
	}

	if name, model, ok := strings.Cut(id, "/"); ok {
		if _, known := backends[name]; !known {
			return Ref{}, fmt.Errorf("%w: %q in %q", ErrUnknownProvider, name, id)
		}
		if model == "" {
			return Ref{}, fmt.Errorf("%w: missing model name in %q", ErrUnknownModel, id)
		}
		return Ref{Provider: name, Name: model}, nil
	}

	if name, ok := lookupBare(id); ok {
		return Ref{Provider: name, Name: id}, nil
	}
	switch {
	case strings.HasPrefix(id, "gpt-"), strings.HasPrefix(id, "chatgpt-"),
		strings.HasPrefix(id, "o1"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
		return Ref{Provider: OpenAI, Name: id}, nil
	case strings.HasPrefix(id, "claude-"):
		return Ref{Provider: Anthropic, Name: id}, nil
	}
	return Ref{}, fmt.Errorf("%w: %q (use provider/model, see --list)", ErrUnknownModel, id)
}

// New constructs the langchaingo model serving ref.
// 参数：logger 仅传给需要调试输出的后端。
func New(ref Ref, logger *slog.Logger) (llms.Model, error) {
	b, ok := backends[ref.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, ref.Provider)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("resolving completion model", "provider", ref.Provider, "model", ref.Name)

	switch b.kind {
	case kindOpenAI:
		opts := []openai.Option{openai.WithModel(ref.Name)}
		if b.baseURL != "" {
			token := os.Getenv(b.tokenEnv)
			if token == "" {
				return nil, fmt.Errorf("%w: %s is not set", ErrMissingAPIKey, b.tokenEnv)
			}
			opts = append(opts, openai.WithBaseURL(b.baseURL), openai.WithToken(token))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Provider, err)
		}
		return llm, nil
	case kindAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(ref.Name)}
		if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		llm, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Provider, err)
		}
		// langchaingo 的 anthropic 后端不读取 JSONMode。
		return jsonModeModel{Model: llm}, nil
	case kindOllama:
		opts := []ollama.Option{ollama.WithModel(ref.Name)}
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			opts = append(opts, ollama.WithServerURL(host))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Provider, err)
		}
		return llm, nil
	case kindClaudeCode:
		llm, err := claudecode.New(
			claudecode.WithModel(ref.Name),
			claudecode.WithCLIPath(os.Getenv("ASQ_CLAUDE_CLI")),
			claudecode.WithPermissionMode(os.Getenv("ASQ_CLAUDE_PERMISSION_MODE")),
			claudecode.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Provider, err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, ref.Provider)
	}
}
