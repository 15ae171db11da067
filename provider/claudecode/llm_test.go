package claudecode

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

const streamFixture = `{"type":"system","subtype":"init"}
{"type":"assistant","message":{"content":[{"type":"text","text":"Hello"},{"type":"tool_use","name":"noop"}]}}
{"type":"assistant","message":{"content":", world"}}
{"type":"assistant","message":{"content":null}}
{"type":"result","result":"Hello, world","total_cost_usd":0.01,"usage":{"output_tokens":3}}
`

// writeFakeCLI 在临时目录中写入一个输出固定 stream-json 的假 claude 可执行文件。
func writeFakeCLI(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cli relies on /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "claude")
	script := "#!/bin/sh\ncat <<'EOF'\n" + body + "EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestReadStreamAggregatesAssistantText(t *testing.T) {
	llm, err := New(WithCLIPath("/bin/true"))
	require.NoError(t, err)

	text, info, err := llm.readStream(strings.NewReader(streamFixture))
	require.NoError(t, err)
	require.Equal(t, "Hello, world", text)
	require.Equal(t, 0.01, info["TotalCostUSD"])
	require.Equal(t, map[string]any{"output_tokens": float64(3)}, info["Usage"])
}

func TestReadStreamErrors(t *testing.T) {
	llm, err := New(WithCLIPath("/bin/true"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"invalid json", "not json\n", "parse json"},
		{"missing type", `{"foo":"bar"}` + "\n", "cli error"},
		{"error result", `{"type":"result","is_error":true,"result":"Invalid API key"}` + "\n", "Invalid API key"},
		{"missing message", `{"type":"assistant"}` + "\n", "missing 'message'"},
		{"bad content", `{"type":"assistant","message":{"content":42}}` + "\n", "unsupported assistant content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := llm.readStream(strings.NewReader(tt.input))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name       string
		messages   []llms.MessageContent
		wantSystem string
		wantPrompt string
	}{
		{
			name:       "lone human message is untouched",
			messages:   []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "  hi\n")},
			wantPrompt: "  hi\n",
		},
		{
			name: "system messages are split out",
			messages: []llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeSystem, "be terse"),
				llms.TextParts(llms.ChatMessageTypeSystem, " "),
				llms.TextParts(llms.ChatMessageTypeSystem, "no markdown"),
				llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
			},
			wantSystem: "be terse\n\nno markdown",
			wantPrompt: "hi",
		},
		{
			name: "conversation gets role prefixes",
			messages: []llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeHuman, "question"),
				llms.TextParts(llms.ChatMessageTypeAI, "answer"),
			},
			wantPrompt: "User: question\n\nAssistant: answer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, prompt, err := flatten(tt.messages)
			require.NoError(t, err)
			require.Equal(t, tt.wantSystem, system)
			require.Equal(t, tt.wantPrompt, prompt)
		})
	}
}

func TestFlattenRejectsNonTextParts(t *testing.T) {
	_, _, err := flatten([]llms.MessageContent{{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.ImageURLContent{URL: "https://example.com/a.png"}},
	}})
	require.ErrorContains(t, err, "unsupported content part")
}

func TestBuildCommandArgs(t *testing.T) {
	llm, err := New(WithCLIPath("/usr/local/bin/claude"), WithPermissionMode("default"))
	require.NoError(t, err)

	cmd := llm.buildCommand(context.Background(), invocation{prompt: "-rf", system: "be terse", model: "opus"})
	require.Equal(t, []string{
		"/usr/local/bin/claude",
		"--output-format", "stream-json", "--verbose",
		"--system-prompt", "be terse",
		"--model", "opus",
		"--permission-mode", "default",
		"--print", "--", "-rf",
	}, cmd.Args)
}

func TestPermissionModeDefaultsToPlan(t *testing.T) {
	llm, err := New(WithCLIPath("/usr/local/bin/claude"), WithPermissionMode(""))
	require.NoError(t, err)

	cmd := llm.buildCommand(context.Background(), invocation{prompt: "hi"})
	require.Equal(t, []string{
		"/usr/local/bin/claude",
		"--output-format", "stream-json", "--verbose",
		"--permission-mode", "plan",
		"--print", "--", "hi",
	}, cmd.Args)
}

func TestGenerateContentWithFakeCLI(t *testing.T) {
	llm, err := New(WithCLIPath(writeFakeCLI(t, streamFixture)), WithModel("sonnet"))
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "be terse"),
		llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
	}, llms.WithJSONMode(), llms.WithTemperature(0.2))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "Hello, world", resp.Choices[0].Content)
}

func TestGenerateContentRejectsEmptyPrompt(t *testing.T) {
	llm, err := New(WithCLIPath("/bin/true"))
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "   "),
	})
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestNewMissingCLI(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := New()
	require.ErrorIs(t, err, ErrCLINotFound)
}
