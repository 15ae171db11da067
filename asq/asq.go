// Package asq sends a single prompt to an LLM and delivers the answer.
//
// The prompt comes either from stdin or, in handoff mode, from the newest
// .promp-out/out-<token>.txt file; the answer goes to stdout or to
// .promp-in/in-<token>.txt respectively. Output is all-or-nothing: on any
// failure nothing is written and Run returns an *Error.
package asq

import (
	"context"
	"io"

	"github.com/IMBotPlatform/asq/provider"
)

// Orchestrator runs one asq invocation.
type Orchestrator struct {
	opts Options
}

// New validates the options and returns an Orchestrator. Validation
// happens before any I/O.
// 参数：opts 为可选配置项。
// 返回：*Orchestrator 与错误。
func New(opts ...Option) (*Orchestrator, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{opts: options}, nil
}

// Run resolves the prompt, calls the completion service exactly once and
// delivers the first choice. No retries are attempted.
func (o *Orchestrator) Run(ctx context.Context) error {
	log := o.opts.Logger

	// 1. 解析 prompt：stdin 与 handoff 两种模式互斥。
	var (
		prompt string
		pair   *HandoffPair
	)
	if o.opts.Handoff {
		found, err := FindHandoff(o.opts.WorkDir)
		if err != nil {
			return err
		}
		log.Debug("selected handoff file", "input", found.InputPath, "output", found.OutputPath)
		if prompt, err = found.ReadPrompt(); err != nil {
			return err
		}
		if err := found.PrepareOutput(); err != nil {
			return err
		}
		pair = &found
	} else {
		data, err := io.ReadAll(o.opts.Stdin)
		if err != nil {
			return newError(KindInput, "cannot read stdin", err)
		}
		prompt = string(data)
	}

	// 2. 组装请求并解析模型提供方。
	ref, err := provider.ParseModel(o.opts.Model)
	if err != nil {
		return newError(KindRemote, "invalid model", err)
	}
	req := NewRequest(ref.Name, BuildMessages(o.opts.SystemPrompt, prompt), o.opts.Temperature, o.opts.JSONMode)
	log.Debug("request assembled",
		"model", ref.String(),
		"messages", len(req.Messages),
		"temperature", req.Temperature,
		"json", req.JSONMode,
	)

	llm, err := o.opts.Factory(ref, log)
	if err != nil {
		return newError(KindRemote, "cannot create completion client", err)
	}

	// 3. 唯一的阻塞调用，超时与重试交给底层客户端。
	o.opts.Progress.Start()
	resp, err := llm.GenerateContent(ctx, req.Messages, req.CallOptions()...)
	o.opts.Progress.Stop()
	if err != nil {
		return newError(KindRemote, "completion failed", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return newError(KindRemote, "empty response", nil)
	}
	text := resp.Choices[0].Content

	// 4. 投递结果。
	if pair != nil {
		if err := pair.WriteResult(text); err != nil {
			return err
		}
		log.Debug("wrote handoff result", "path", pair.OutputPath, "bytes", len(text))
		return nil
	}
	if _, err := io.WriteString(o.opts.Stdout, text); err != nil {
		return newError(KindOutput, "cannot write stdout", err)
	}
	return nil
}
