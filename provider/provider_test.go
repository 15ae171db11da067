package provider

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		id      string
		want    Ref
		wantErr error
	}{
		{id: "gpt-4o-mini", want: Ref{Provider: OpenAI, Name: "gpt-4o-mini"}},
		{id: "gpt-5-preview", want: Ref{Provider: OpenAI, Name: "gpt-5-preview"}},
		{id: "o3-mini", want: Ref{Provider: OpenAI, Name: "o3-mini"}},
		{id: "claude-3-5-haiku-20241022", want: Ref{Provider: Anthropic, Name: "claude-3-5-haiku-20241022"}},
		{id: "claude-unreleased", want: Ref{Provider: Anthropic, Name: "claude-unreleased"}},
		{id: "anthropic/claude-opus-4-20250514", want: Ref{Provider: Anthropic, Name: "claude-opus-4-20250514"}},
		{id: "openrouter/openai/gpt-4o", want: Ref{Provider: OpenRouter, Name: "openai/gpt-4o"}},
		{id: "ollama/llama3.1", want: Ref{Provider: Ollama, Name: "llama3.1"}},
		{id: "claude-code/sonnet", want: Ref{Provider: ClaudeCode, Name: "sonnet"}},
		{id: " deepseek/deepseek-chat ", want: Ref{Provider: DeepSeek, Name: "deepseek-chat"}},
		{id: "", wantErr: ErrUnknownModel},
		{id: "llama3", wantErr: ErrUnknownModel},
		{id: "ollama/", wantErr: ErrUnknownModel},
		{id: "acme/model", wantErr: ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := ParseModel(tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestListModelsSortedAndParseable(t *testing.T) {
	models := ListModels()
	require.True(t, sort.StringsAreSorted(models))
	require.Contains(t, models, "gpt-4o-mini")
	require.Contains(t, models, "ollama/llama3.1")
	require.Contains(t, models, "openrouter/openai/gpt-4o")

	for _, id := range models {
		ref, err := ParseModel(id)
		require.NoError(t, err, id)
		require.NotEmpty(t, ref.Name)
	}
}

func TestNewOpenAICompatibleRequiresToken(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := New(Ref{Provider: Groq, Name: "llama-3.1-8b-instant"}, nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.ErrorContains(t, err, "GROQ_API_KEY")
}

func TestNewBackends(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")

	cli := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(cli, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("ASQ_CLAUDE_CLI", cli)

	for _, ref := range []Ref{
		{Provider: OpenAI, Name: "gpt-4o-mini"},
		{Provider: OpenRouter, Name: "openai/gpt-4o"},
		{Provider: Anthropic, Name: "claude-3-5-haiku-20241022"},
		{Provider: Ollama, Name: "llama3.1"},
		{Provider: ClaudeCode, Name: "sonnet"},
	} {
		t.Run(ref.String(), func(t *testing.T) {
			llm, err := New(ref, nil)
			require.NoError(t, err)
			require.NotNil(t, llm)
		})
	}
}

func TestClaudeCodeEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake cli relies on /bin/sh")
	}
	// 假 CLI 把收到的参数作为回答输出。
	cli := filepath.Join(t.TempDir(), "claude")
	script := "#!/bin/sh\nprintf '{\"type\":\"assistant\",\"message\":{\"content\":\"%s\"}}\\n' \"$*\"\n"
	require.NoError(t, os.WriteFile(cli, []byte(script), 0o755))
	t.Setenv("ASQ_CLAUDE_CLI", cli)
	t.Setenv("ASQ_CLAUDE_PERMISSION_MODE", "acceptEdits")

	llm, err := New(Ref{Provider: ClaudeCode, Name: "sonnet"}, nil)
	require.NoError(t, err)

	answer, err := llm.Call(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t,
		"--output-format stream-json --verbose --model sonnet --permission-mode acceptEdits --print -- hi",
		answer)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Ref{Provider: "acme", Name: "x"}, nil)
	require.ErrorIs(t, err, ErrUnknownProvider)
}
