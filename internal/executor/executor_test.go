package executor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testLimits() Limits {
	return Limits{
		Timeout:        5 * time.Second,
		MaxOutputBytes: 64 * 1024,
		WaitDelay:      500 * time.Millisecond,
	}
}

func TestExecuteCapturesStreamsAndExitCode(t *testing.T) {
	e := New(testLimits())

	result, err := e.Execute(context.Background(), []string{"sh", "-c", "echo out; echo err >&2; exit 3"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if string(result.Stdout) != "out\n" {
		t.Errorf("unexpected stdout %q", result.Stdout)
	}
	if string(result.Stderr) != "err\n" {
		t.Errorf("unexpected stderr %q", result.Stderr)
	}
	if result.TimedOut || result.Canceled || result.Truncated() || result.Terminated() {
		t.Errorf("unexpected flags: %+v", result)
	}
}

func TestExecuteSuccess(t *testing.T) {
	e := New(testLimits())

	result, err := e.Execute(context.Background(), []string{"sh", "-c", "printf hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ExitCode != 0 || string(result.Stdout) != "hello" {
		t.Errorf("unexpected result: exit=%d stdout=%q", result.ExitCode, result.Stdout)
	}
}

func TestExecuteArgumentsAreNotInterpreted(t *testing.T) {
	e := New(testLimits())
	literal := "/Root/$(rm -rf x) `id` ; | & > out"

	result, err := e.Execute(context.Background(), []string{"sh", "-c", `printf '%s' "$1"`, "sh", literal})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(result.Stdout) != literal {
		t.Errorf("expected literal %q, got %q", literal, result.Stdout)
	}
}

func TestExecuteSpawnError(t *testing.T) {
	e := New(testLimits())

	result, err := e.Execute(context.Background(), []string{"/nonexistent/bin/pcli2", "tenant", "list"})
	if result != nil {
		t.Errorf("expected no result, got %+v", result)
	}

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected *SpawnError, got %T: %v", err, err)
	}
	if spawnErr.Program != "/nonexistent/bin/pcli2" {
		t.Errorf("unexpected program %q", spawnErr.Program)
	}

	if _, err := e.Execute(context.Background(), nil); !errors.As(err, &spawnErr) {
		t.Errorf("expected *SpawnError for empty argv, got %v", err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	limits := testLimits()
	limits.Timeout = 300 * time.Millisecond
	e := New(limits)

	start := time.Now()
	result, err := e.Execute(context.Background(), []string{"sh", "-c", "echo started; exec sleep 30"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("execution took %s, timeout was not enforced", elapsed)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut")
	}
	if result.ExitCode != ExitTerminated || !result.Terminated() {
		t.Errorf("expected terminated exit code, got %d", result.ExitCode)
	}
	if string(result.Stdout) != "started\n" {
		t.Errorf("expected partial output to survive, got %q", result.Stdout)
	}
}

func TestExecuteCanceled(t *testing.T) {
	e := New(testLimits())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	result, err := e.Execute(ctx, []string{"sleep", "30"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Canceled || result.TimedOut {
		t.Errorf("expected canceled and not timed out: %+v", result)
	}
	if result.ExitCode != ExitTerminated {
		t.Errorf("expected terminated exit code, got %d", result.ExitCode)
	}
}

func TestExecuteTruncatesWithoutKilling(t *testing.T) {
	limits := testLimits()
	limits.MaxOutputBytes = 1024
	e := New(limits)

	result, err := e.Execute(context.Background(), []string{"sh", "-c", "head -c 100000 /dev/zero; echo done >&2"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(result.Stdout) != 1024 {
		t.Errorf("expected 1024 captured bytes, got %d", len(result.Stdout))
	}
	if !result.StdoutTruncated || !result.Truncated() {
		t.Error("expected stdout to be flagged truncated")
	}
	if result.StderrTruncated {
		t.Error("stderr was within limits")
	}
	// the program ran to completion
	if result.ExitCode != 0 || string(result.Stderr) != "done\n" {
		t.Errorf("expected clean completion, got exit=%d stderr=%q", result.ExitCode, result.Stderr)
	}
}

func TestBoundedBuffer(t *testing.T) {
	b := newBoundedBuffer(5)

	for _, chunk := range []string{"ab", "cd", "ef", "gh"} {
		n, err := b.Write([]byte(chunk))
		if err != nil || n != len(chunk) {
			t.Fatalf("Write(%q) = %d, %v", chunk, n, err)
		}
	}

	if !bytes.Equal(b.Bytes(), []byte("abcde")) {
		t.Errorf("expected abcde, got %q", b.Bytes())
	}
	if !b.Truncated() {
		t.Error("expected truncated")
	}

	exact := newBoundedBuffer(4)
	exact.Write([]byte("abcd"))
	exact.Write(nil)
	if exact.Truncated() {
		t.Error("an exactly full buffer is not truncated")
	}
}

func TestSpawnErrorMessage(t *testing.T) {
	err := &SpawnError{Program: "pcli2", Err: errors.New("executable file not found in $PATH")}
	if !strings.Contains(err.Error(), "failed to start pcli2") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if errors.Unwrap(err) == nil {
		t.Error("expected wrapped cause")
	}
}
