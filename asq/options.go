package asq

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/IMBotPlatform/asq/provider"
)

const (
	// DefaultModel is used when neither --model nor ASQ_MODEL is set.
	DefaultModel = "gpt-4o-mini"
	// DefaultTemperature is the sampling temperature when none is given.
	DefaultTemperature = 0.7
	// MinTemperature and MaxTemperature bound the accepted temperature.
	MinTemperature = 0.0
	MaxTemperature = 2.0

	// ModelEnv names the environment variable consulted for the model.
	ModelEnv = "ASQ_MODEL"
	// LogLevelEnv names the environment variable consulted for the log level.
	LogLevelEnv = "ASQ_LOG_LEVEL"
	// DefaultLogLevel keeps normal runs silent on stderr.
	DefaultLogLevel = "warn"
)

// Options defines the configuration of a single asq invocation.
type Options struct {
	// Model is the model identifier, see provider.ParseModel.
	Model string
	// SystemPrompt is sent as a system message when non-empty.
	SystemPrompt string
	// Temperature must lie in [MinTemperature, MaxTemperature].
	Temperature float64
	// JSONMode asks the model for JSON-only output.
	JSONMode bool
	// Handoff switches I/O from stdin/stdout to the handoff directories.
	Handoff bool
	// WorkDir is the directory holding the handoff directories.
	WorkDir string

	Stdin  io.Reader
	Stdout io.Writer

	// Logger receives debug diagnostics only; failures are reported by the caller.
	Logger *slog.Logger
	// Factory builds the completion model. Defaults to provider.New.
	Factory provider.Factory
	// Progress is shown while waiting on the completion service.
	Progress Progress
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		WorkDir:     ".",
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Logger:      slog.New(slog.DiscardHandler),
		Factory:     provider.New,
		Progress:    noopProgress{},
	}
}

// ResolveModel applies the model fallback chain: flag value, then the
// ASQ_MODEL environment variable, then DefaultModel.
// 参数：getenv 通常为 os.Getenv，测试中可替换。
func ResolveModel(flagValue string, getenv func(string) string) string {
	if model := strings.TrimSpace(flagValue); model != "" {
		return model
	}
	if getenv != nil {
		if model := strings.TrimSpace(getenv(ModelEnv)); model != "" {
			return model
		}
	}
	return DefaultModel
}

// ValidateTemperature reports whether t is an accepted sampling temperature.
func ValidateTemperature(t float64) error {
	if math.IsNaN(t) || t < MinTemperature || t > MaxTemperature {
		return newError(KindConfiguration,
			fmt.Sprintf("temperature %v is outside [%.1f, %.1f]", t, MinTemperature, MaxTemperature), nil)
	}
	return nil
}

// Validate checks the options before any I/O happens.
func (o Options) Validate() error {
	if err := ValidateTemperature(o.Temperature); err != nil {
		return err
	}
	if strings.TrimSpace(o.Model) == "" {
		return newError(KindConfiguration, "model is empty", nil)
	}
	return nil
}

// WithModel sets the model identifier. An empty value keeps the default.
func WithModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = t
	}
}

// WithJSONMode toggles JSON-only output.
func WithJSONMode(enabled bool) Option {
	return func(o *Options) {
		o.JSONMode = enabled
	}
}

// WithHandoff toggles file handoff mode.
func WithHandoff(enabled bool) Option {
	return func(o *Options) {
		o.Handoff = enabled
	}
}

// WithWorkDir sets the directory containing .promp-out and .promp-in.
func WithWorkDir(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.WorkDir = dir
		}
	}
}

// WithIO sets the prompt source and the result sink for normal mode.
func WithIO(stdin io.Reader, stdout io.Writer) Option {
	return func(o *Options) {
		o.Stdin = stdin
		o.Stdout = stdout
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithFactory replaces the completion model factory.
func WithFactory(factory provider.Factory) Option {
	return func(o *Options) {
		if factory != nil {
			o.Factory = factory
		}
	}
}

// WithProgress sets the progress indicator.
func WithProgress(p Progress) Option {
	return func(o *Options) {
		if p != nil {
			o.Progress = p
		}
	}
}
