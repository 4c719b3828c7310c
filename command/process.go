package command

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// processWaitDelay bounds how long output is drained after the process was
// killed on context cancellation.
const processWaitDelay = time.Second

// ProcessFactory creates commands backed by a real subprocess.
type ProcessFactory struct {
	// Timeout bounds every invocation. Zero waits for the process forever.
	Timeout time.Duration
	Logger  *log.Logger
}

func (pf *ProcessFactory) Create(args []string) Command {
	return &Process{
		args:    append([]string(nil), args...),
		timeout: pf.Timeout,
		logger:  pf.Logger,
	}
}

type Process struct {
	args    []string
	timeout time.Duration
	logger  *log.Logger
}

func (p *Process) Execute(ctx context.Context) (string, error) {
	if len(p.args) == 0 {
		return "", newError(p.args, -1, errors.New("empty command"))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.args[0], p.args[1:]...)
	cmd.WaitDelay = processWaitDelay
	started := time.Now()
	out, err := cmd.Output()
	if p.logger != nil {
		p.logger.Debug("gpio command done", "cmd", strings.Join(p.args, " "), "took", time.Since(started), "err", err)
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Wrap(ctxErr, err.Error())
		}
		return "", newError(p.args, exitCode, err)
	}

	return strings.TrimSpace(string(out)), nil
}
