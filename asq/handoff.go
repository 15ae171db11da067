package asq

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Handoff layout, relative to the working directory. An external producer
// writes .promp-out/out-<token>.txt; asq answers in .promp-in/in-<token>.txt.
//
// The most recent request is the lexicographically greatest file name, so
// producers must use a fixed-width sortable token such as
// 20060102T150405Z. The token itself is not validated.
const (
	HandoffInputDir  = ".promp-out"
	HandoffOutputDir = ".promp-in"

	handoffInputPrefix  = "out-"
	handoffOutputPrefix = "in-"
	handoffSuffix       = ".txt"
)

// HandoffPair correlates a request file with the response file it produces.
type HandoffPair struct {
	Token      string
	InputPath  string
	OutputPath string
}

// FindHandoff selects the most recent request file under workDir.
// 参数：workDir 为包含 .promp-out 与 .promp-in 的目录。
// 返回：选中的文件对与错误。
func FindHandoff(workDir string) (HandoffPair, error) {
	inputDir := filepath.Join(workDir, HandoffInputDir)
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return HandoffPair{}, fsError("directory", inputDir, err)
	}

	var latest string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isHandoffInput(name) {
			continue
		}
		if name > latest {
			latest = name
		}
	}
	if latest == "" {
		return HandoffPair{}, newError(KindConfiguration,
			fmt.Sprintf("no matching files: %s", filepath.Join(inputDir, handoffInputPrefix+"*"+handoffSuffix)), nil)
	}

	token := strings.TrimSuffix(strings.TrimPrefix(latest, handoffInputPrefix), handoffSuffix)
	return HandoffPair{
		Token:      token,
		InputPath:  filepath.Join(inputDir, latest),
		OutputPath: filepath.Join(workDir, HandoffOutputDir, handoffOutputPrefix+token+handoffSuffix),
	}, nil
}

func isHandoffInput(name string) bool {
	return len(name) >= len(handoffInputPrefix)+len(handoffSuffix) &&
		strings.HasPrefix(name, handoffInputPrefix) &&
		strings.HasSuffix(name, handoffSuffix)
}

// ReadPrompt returns the content of the request file.
func (p HandoffPair) ReadPrompt() (string, error) {
	data, err := os.ReadFile(p.InputPath)
	if err != nil {
		return "", fsError("file", p.InputPath, err)
	}
	return string(data), nil
}

// PrepareOutput creates the response directory if it does not exist yet.
func (p HandoffPair) PrepareOutput() error {
	dir := filepath.Dir(p.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fsError("directory", dir, err)
	}
	return nil
}

// WriteResult writes text to the response file, replacing any previous one.
func (p HandoffPair) WriteResult(text string) error {
	if err := os.WriteFile(p.OutputPath, []byte(text), 0o644); err != nil {
		return fsError("file", p.OutputPath, err)
	}
	return nil
}

// fsError maps filesystem failures onto ConfigurationError messages.
func fsError(what, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(KindConfiguration, fmt.Sprintf("%s not found: %s", what, path), nil)
	case errors.Is(err, fs.ErrPermission):
		return newError(KindConfiguration, fmt.Sprintf("filesystem access denied: %s", path), nil)
	default:
		return newError(KindConfiguration, fmt.Sprintf("filesystem error: %s", path), err)
	}
}
