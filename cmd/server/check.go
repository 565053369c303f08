package main

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shirenchuang/pcli2-mcp/internal/executor"
)

// checkProgram makes sure pcli2 can be found and started, and returns the
// version line it reports.
func checkProgram(ctx context.Context, program string) (string, error) {
	path, err := exec.LookPath(program)
	if err != nil {
		return "", errors.Wrapf(err, "%s not found; install pcli2 or set pcli2.program", program)
	}

	runner := executor.New(executor.Limits{
		Timeout:        10 * time.Second,
		MaxOutputBytes: 64 << 10,
		WaitDelay:      time.Second,
	})

	res, err := runner.Execute(ctx, []string{path, "--version"})
	if err != nil {
		return "", err
	}
	if res.TimedOut {
		return "", errors.Errorf("%s --version did not finish within %s", path, runner.Limits().Timeout)
	}
	if res.ExitCode != 0 {
		return "", errors.Errorf("%s --version exited with code %d: %s", path, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	version := strings.TrimSpace(string(res.Stdout))
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return fmt.Sprintf("%s (%s)", version, path), nil
}
