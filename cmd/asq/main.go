// Command asq reads a prompt from stdin, sends it to an LLM and prints the
// answer to stdout.
//
//	echo "Explain CRDTs in one paragraph" | asq -m anthropic/claude-sonnet-4-20250514 -s "be terse"
//
// With -p/--promp the prompt is taken from the newest .promp-out/out-<token>.txt
// in the working directory and the answer is written to .promp-in/in-<token>.txt.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/IMBotPlatform/asq/asq"
	"github.com/IMBotPlatform/asq/provider"
	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitError = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, provider.New))
}

// run executes asq and returns the process exit status.
// 参数：factory 用于构造补全模型，测试中替换为桩实现。
// 返回：0 表示成功，1 表示任意失败。
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, factory provider.Factory) int {
	// --list 在任何参数校验之前处理，直接退出。
	if wantsList(args) {
		printModels(stdout)
		return exitOK
	}

	cmd := newRootCommand(stdin, stdout, stderr, factory)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, asq.Diagnostic(err))
		return exitError
	}
	return exitOK
}

// valueFlags lists the flags whose next argument is a value, not a flag.
var valueFlags = map[string]bool{
	"m": true, "s": true, "t": true,
	"model": true, "system": true, "temperature": true, "log-level": true,
}

// wantsList reports whether -l/--list is set, skipping flag values and
// stopping at a "--" terminator.
func wantsList(args []string) bool {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return false
		case strings.HasPrefix(arg, "--"):
			name, value, hasValue := strings.Cut(arg[2:], "=")
			if name == "list" {
				return !hasValue || value == "true"
			}
			if valueFlags[name] && !hasValue {
				i++
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			// 短参数可以组合（-jl），值参数之后的字符都属于值（-sfoo）。
			for j, c := range arg[1:] {
				if c == 'l' {
					return true
				}
				if valueFlags[string(c)] {
					if j == len(arg)-2 {
						i++
					}
					break
				}
			}
		}
	}
	return false
}

func printModels(w io.Writer) {
	for _, model := range provider.ListModels() {
		fmt.Fprintln(w, model)
	}
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer, factory provider.Factory) *cobra.Command {
	var (
		list        bool
		model       string
		system      string
		temperature float64
		jsonMode    bool
		handoff     bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "asq",
		Short: "Send stdin to an LLM and print the answer",
		Long: `asq reads a prompt from standard input, sends it to an LLM completion API
and writes the answer to standard output.

Models are given as provider/model (see --list). API keys are read from the
provider's usual environment variable, e.g. OPENAI_API_KEY or ANTHROPIC_API_KEY.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// pflag 接受 --list=1 等写法，wantsList 未覆盖时在这里兜底。
			if list {
				printModels(stdout)
				return nil
			}

			level, err := asq.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			o, err := asq.New(
				asq.WithModel(asq.ResolveModel(model, os.Getenv)),
				asq.WithSystemPrompt(system),
				asq.WithTemperature(temperature),
				asq.WithJSONMode(jsonMode),
				asq.WithHandoff(handoff),
				asq.WithIO(stdin, stdout),
				asq.WithLogger(asq.NewLogger(level, stderr)),
				asq.WithFactory(factory),
				asq.WithProgress(asq.NewProgress(stderr)),
			)
			if err != nil {
				return err
			}
			return o.Run(context.Background())
		},
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.BoolVarP(&list, "list", "l", false, "list known model identifiers and exit")
	flags.StringVarP(&model, "model", "m", "",
		fmt.Sprintf("model identifier (default $%s, then %s)", asq.ModelEnv, asq.DefaultModel))
	flags.StringVarP(&system, "system", "s", "", "system prompt")
	flags.Float64VarP(&temperature, "temperature", "t", asq.DefaultTemperature,
		fmt.Sprintf("sampling temperature (%.1f to %.1f)", asq.MinTemperature, asq.MaxTemperature))
	flags.BoolVarP(&jsonMode, "json", "j", false, "force JSON-only output")
	flags.BoolVarP(&handoff, "promp", "p", false,
		"read the newest .promp-out/out-<token>.txt and write .promp-in/in-<token>.txt instead of stdin/stdout")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel(), "diagnostic log level: debug, info, warn or error")

	return cmd
}

func defaultLogLevel() string {
	if level := strings.TrimSpace(os.Getenv(asq.LogLevelEnv)); level != "" {
		return level
	}
	return asq.DefaultLogLevel
}
