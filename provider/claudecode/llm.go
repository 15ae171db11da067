// Package claudecode implements llms.Model on top of the local Claude Code CLI,
// so subscription users can route asq requests through the claude binary
// instead of an HTTP API key.
package claudecode

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrCLINotFound is returned when the claude binary cannot be located.
	ErrCLINotFound = errors.New("claude cli not found")
	// ErrEmptyPrompt is returned when no non-system text is left to send.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

const jsonInstruction = "Respond only with a single valid JSON object and no surrounding prose."

// LLM runs one claude --print process per GenerateContent call.
type LLM struct {
	cliPath string
	opts    Options
}

var _ llms.Model = (*LLM)(nil)

// New locates the CLI and returns a ready model.
// 参数：opts 为可选配置项。
// 返回：*LLM 与错误，找不到 CLI 时返回 ErrCLINotFound。
func New(opts ...Option) (*LLM, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	cliPath, err := locateCLI(options.CLIPath)
	if err != nil {
		return nil, err
	}
	return &LLM{cliPath: cliPath, opts: options}, nil
}

func locateCLI(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		if path, err := exec.LookPath(filepath.Join(home, ".local", "bin", "claude")); err == nil {
			return path, nil
		}
	}
	path, err := exec.LookPath("claude")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCLINotFound, err)
	}
	return path, nil
}

// Call implements llms.Model.
func (l *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, l, prompt, options...)
}

// invocation is everything one CLI run needs.
type invocation struct {
	prompt string
	system string
	model  string
}

// GenerateContent implements llms.Model. Temperature has no CLI
// counterpart and is ignored; JSON mode becomes a system instruction.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) { //nolint:lll
	var callOpts llms.CallOptions
	for _, opt := range options {
		opt(&callOpts)
	}

	system, prompt, err := flatten(messages)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if callOpts.JSONMode {
		system = joinNonEmpty(system, jsonInstruction)
	}

	inv := invocation{prompt: prompt, system: system, model: l.opts.Model}
	if callOpts.Model != "" {
		inv.model = callOpts.Model
	}

	text, info, err := l.run(ctx, inv)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        text,
		GenerationInfo: info,
	}}}, nil
}

func (l *LLM) run(ctx context.Context, inv invocation) (string, map[string]any, error) {
	cmd := l.buildCommand(ctx, inv)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", nil, fmt.Errorf("claude code: stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", nil, fmt.Errorf("claude code: start cli: %w", err)
	}

	text, info, streamErr := l.readStream(stdout)
	if streamErr != nil {
		// 流已损坏，不再等待 CLI 自行退出。
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return "", nil, streamErr
	}
	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", nil, fmt.Errorf("claude code: cli failed: %w: %s", err, msg)
		}
		return "", nil, fmt.Errorf("claude code: cli failed: %w", err)
	}
	return text, info, nil
}

// buildCommand assembles a non-interactive claude invocation. The prompt
// follows "--" so a leading dash is never read as a flag.
func (l *LLM) buildCommand(ctx context.Context, inv invocation) *exec.Cmd {
	args := []string{"--output-format", "stream-json", "--verbose"}
	for _, kv := range [][2]string{
		{"--system-prompt", inv.system},
		{"--model", inv.model},
		{"--permission-mode", l.opts.PermissionMode},
	} {
		if kv[1] != "" {
			args = append(args, kv[0], kv[1])
		}
	}

	// prompt 可能很长，日志里只记录长度。
	l.opts.Logger.Debug("claude code: starting cli",
		"path", l.cliPath,
		"args", strings.Join(args, " "),
		"prompt_bytes", len(inv.prompt),
	)
	return exec.CommandContext(ctx, l.cliPath, append(args, "--print", "--", inv.prompt)...)
}

// streamEvent is one line of --output-format stream-json. Only the fields
// asq reads are decoded.
type streamEvent struct {
	Type         string         `json:"type"`
	Message      *eventMessage  `json:"message"`
	IsError      bool           `json:"is_error"`
	Result       string         `json:"result"`
	TotalCostUSD *float64       `json:"total_cost_usd"`
	DurationMS   *float64       `json:"duration_ms"`
	Usage        map[string]any `json:"usage"`
}

type eventMessage struct {
	Content textBlocks `json:"content"`
}

// textBlocks collects the text of an assistant message, whose content is
// either a plain string or a list of typed blocks.
type textBlocks []string

func (t *textBlocks) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*t = textBlocks{s}
		}
		return nil
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("unsupported assistant content: %s", bytes.TrimSpace(data))
	}
	for _, b := range blocks {
		// tool_use、thinking 等块不属于回答文本。
		if b.Type == "text" && b.Text != "" {
			*t = append(*t, b.Text)
		}
	}
	return nil
}

// readStream consumes the CLI's stdout until EOF.
// 返回：拼接后的助手文本、result 行的用量信息与错误。
func (l *LLM) readStream(r io.Reader) (string, map[string]any, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var (
		answer strings.Builder
		info   map[string]any
	)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return "", nil, fmt.Errorf("claude code: parse json: %w", err)
		}
		l.opts.Logger.Debug("claude code: stream event", "type", ev.Type)

		switch ev.Type {
		case "assistant":
			if ev.Message == nil {
				return "", nil, errors.New("claude code: assistant event missing 'message'")
			}
			for _, text := range ev.Message.Content {
				answer.WriteString(text)
			}
		case "result":
			if ev.IsError {
				return "", nil, fmt.Errorf("claude code: cli error: %s", ev.Result)
			}
			info = ev.generationInfo()
		case "":
			return "", nil, fmt.Errorf("claude code: cli error: unexpected line %s", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("claude code: read stdout: %w", err)
	}
	return answer.String(), info, nil
}

func (ev streamEvent) generationInfo() map[string]any {
	info := make(map[string]any, 3)
	if ev.TotalCostUSD != nil {
		info["TotalCostUSD"] = *ev.TotalCostUSD
	}
	if ev.DurationMS != nil {
		info["DurationMS"] = *ev.DurationMS
	}
	if ev.Usage != nil {
		info["Usage"] = ev.Usage
	}
	return info
}

// flatten turns a conversation into the CLI's system prompt and a single
// prompt string. A lone human message is passed through byte for byte;
// longer conversations are rendered as "User:"/"Assistant:" turns.
func flatten(messages []llms.MessageContent) (system, prompt string, err error) {
	var (
		systems []string
		turns   []llms.MessageContent
	)
	for _, msg := range messages {
		if msg.Role != llms.ChatMessageTypeSystem {
			turns = append(turns, msg)
			continue
		}
		text, err := partsText(msg)
		if err != nil {
			return "", "", err
		}
		systems = append(systems, text)
	}
	system = joinNonEmpty(systems...)

	if len(turns) == 1 && turns[0].Role == llms.ChatMessageTypeHuman {
		prompt, err = partsText(turns[0])
		return system, prompt, err
	}

	rendered := make([]string, 0, len(turns))
	for _, msg := range turns {
		text, err := partsText(msg)
		if err != nil {
			return "", "", err
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		switch msg.Role {
		case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
			text = "User: " + text
		case llms.ChatMessageTypeAI:
			text = "Assistant: " + text
		}
		rendered = append(rendered, text)
	}
	return system, strings.Join(rendered, "\n\n"), nil
}

// partsText joins the text parts of msg; any other part type is an error.
func partsText(msg llms.MessageContent) (string, error) {
	texts := make([]string, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		p, ok := part.(llms.TextContent)
		if !ok {
			return "", fmt.Errorf("claude code: unsupported content part: %T", part)
		}
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n"), nil
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
