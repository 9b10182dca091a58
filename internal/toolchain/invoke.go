package toolchain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"ogre-mesh-tools/internal/model"
)

const (
	maxCapturedOutput = 8192
	maxDetailLength   = 1200
)

// ToolError is a classified external-tool failure. The pipeline turns it into
// a Failed OperationOutcome; it never crosses a pipeline boundary as a panic.
type ToolError struct {
	Kind   model.ErrorKind
	Tool   string
	Detail string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Detail)
}

func configurationError(tool, detail string) *ToolError {
	return &ToolError{Kind: model.ErrConfiguration, Tool: tool, Detail: detail}
}

func invocationError(tool, detail string) *ToolError {
	return &ToolError{Kind: model.ErrInvocation, Tool: tool, Detail: truncate(detail, maxDetailLength)}
}

// Classify extracts the error kind from err, defaulting to an invocation
// error for anything untyped.
func Classify(err error) model.ErrorKind {
	if te, ok := err.(*ToolError); ok {
		return te.Kind
	}
	return model.ErrInvocation
}

// Invocation describes one external command run.
type Invocation struct {
	Tool   string // short name used in error detail
	Binary string // absolute path or bare name resolved via PATH
	Args   []string
	Dir    string
	// ExpectOutput, when set, must exist with non-zero size after a clean
	// exit for the run to count as a success.
	ExpectOutput string
	// LogWriter receives every captured line, when set.
	LogWriter io.Writer
}

// Result carries the captured diagnostics of a finished run.
type Result struct {
	Command []string
	Stdout  string
	Stderr  string
}

// Run validates that the binary exists, executes it synchronously and
// classifies the outcome. A missing binary is a configuration error and no
// process is launched. A non-zero exit or a missing/empty expected output is
// an invocation error carrying the captured diagnostic text.
func Run(inv Invocation) (Result, error) {
	resolved, err := ResolveBinary(inv.Binary)
	if err != nil {
		return Result{}, configurationError(inv.Tool, err.Error())
	}

	cmd := exec.Command(resolved, inv.Args...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, invocationError(inv.Tool, fmt.Sprintf("setup stdout pipe: %v", err))
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, invocationError(inv.Tool, fmt.Sprintf("setup stderr pipe: %v", err))
	}
	if err := cmd.Start(); err != nil {
		return Result{}, invocationError(inv.Tool, fmt.Sprintf("start: %v", err))
	}

	var outBuf, errBuf strings.Builder
	var mu sync.Mutex
	var wg sync.WaitGroup

	read := func(buf *strings.Builder, r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			appendLimited(buf, line)
			if inv.LogWriter != nil {
				_, _ = io.WriteString(inv.LogWriter, line+"\n")
			}
			mu.Unlock()
		}
	}

	wg.Add(2)
	go read(&outBuf, stdoutPipe)
	go read(&errBuf, stderrPipe)
	wg.Wait()

	waitErr := cmd.Wait()

	mu.Lock()
	res := Result{
		Command: append([]string{resolved}, inv.Args...),
		Stdout:  outBuf.String(),
		Stderr:  errBuf.String(),
	}
	mu.Unlock()

	if waitErr != nil {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout)
		}
		return res, invocationError(inv.Tool, fmt.Sprintf("%v: %s", waitErr, detail))
	}
	if inv.ExpectOutput != "" {
		info, err := os.Stat(inv.ExpectOutput)
		if err != nil {
			return res, invocationError(inv.Tool, fmt.Sprintf("exited cleanly but expected output %s is missing", inv.ExpectOutput))
		}
		if info.Size() == 0 {
			return res, invocationError(inv.Tool, fmt.Sprintf("exited cleanly but output %s is empty", inv.ExpectOutput))
		}
	}
	return res, nil
}

// ResolveBinary checks the referenced binary exists before any invocation is
// attempted. Bare names go through PATH, everything else is stat'ed directly.
func ResolveBinary(binary string) (string, error) {
	b := strings.TrimSpace(binary)
	if b == "" {
		return "", fmt.Errorf("tool path is not configured")
	}
	if !strings.ContainsRune(b, os.PathSeparator) {
		path, err := exec.LookPath(b)
		if err != nil {
			return "", fmt.Errorf("missing dependency: %s is not installed or not on PATH", b)
		}
		return path, nil
	}
	info, err := os.Stat(b)
	if err != nil {
		return "", fmt.Errorf("missing dependency: %s does not exist", b)
	}
	if info.IsDir() {
		return "", fmt.Errorf("missing dependency: %s is a directory", b)
	}
	return b, nil
}

func appendLimited(b *strings.Builder, line string) {
	if b.Len() >= maxCapturedOutput {
		return
	}
	toWrite := line + "\n"
	if remain := maxCapturedOutput - b.Len(); len(toWrite) > remain {
		toWrite = toWrite[:remain]
	}
	b.WriteString(toWrite)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
