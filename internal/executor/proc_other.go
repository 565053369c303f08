//go:build !unix

package executor

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// No process groups here; only the direct child is killed.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
