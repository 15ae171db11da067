package claudecode

import "log/slog"

// Options configures the Claude Code CLI backend.
type Options struct {
	// CLIPath 为空时依次查找 ~/.local/bin/claude 与 PATH。
	CLIPath string
	// Model is the default Claude model alias (sonnet, opus, ...). A model set
	// on the call takes precedence.
	Model string
	// PermissionMode is passed to --permission-mode.
	PermissionMode string
	Logger         *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

const (
	// asq 只需要纯文本回答，默认不授予工具权限。
	defaultPermissionMode = "plan"
	// stream-json 单行上限，超过即视为读取失败。
	maxEventSize = 1024 * 1024
)

func defaultOptions() Options {
	return Options{
		PermissionMode: defaultPermissionMode,
		Logger:         slog.New(slog.DiscardHandler),
	}
}

// WithCLIPath sets the path to the claude binary.
func WithCLIPath(path string) Option {
	return func(o *Options) {
		o.CLIPath = path
	}
}

// WithModel sets the default model alias.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithPermissionMode sets the CLI permission mode.
// 参数：mode 为空时保留默认的 plan。
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		if mode != "" {
			o.PermissionMode = mode
		}
	}
}

// WithLogger sets the logger used for debug output.
// 参数：logger 为 nil 时保持静默。
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}
