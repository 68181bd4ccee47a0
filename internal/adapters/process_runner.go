package adapters

import (
	"context"
	"os"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	gocmd "github.com/go-cmd/cmd"

	"remote-apt-dater/internal/ports"
	"remote-apt-dater/internal/types"
)

// ProcessRunnerAdapter launches local commands through go-cmd and waits
// for them to exit. Output is buffered for diagnostics only.
type ProcessRunnerAdapter struct{}

func NewProcessRunnerAdapter() ProcessRunnerAdapter {
	return ProcessRunnerAdapter{}
}

func (a ProcessRunnerAdapter) Run(ctx context.Context, argv []string, extraEnv []string) (types.ProcessResult, error) {
	if len(argv) == 0 {
		return types.ProcessResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("command is empty")
	}
	if err := ctx.Err(); err != nil {
		return types.ProcessResult{}, err
	}

	command := gocmd.NewCmdOptions(gocmd.Options{Buffered: true}, argv[0], argv[1:]...)
	if len(extraEnv) > 0 {
		command.Env = append(os.Environ(), extraEnv...)
	}

	var status gocmd.Status
	statusCh := command.Start()
	select {
	case status = <-statusCh:
	case <-ctx.Done():
		_ = command.Stop()
		<-statusCh
		return types.ProcessResult{}, ctx.Err()
	}

	result := types.ProcessResult{
		Exit:    status.Exit,
		Stdout:  status.Stdout,
		Stderr:  status.Stderr,
		Runtime: time.Duration(status.Runtime * float64(time.Second)),
	}
	if status.Error != nil {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to run " + argv[0]).
			WithCause(status.Error)
	}
	return result, nil
}

var _ ports.ProcessRunnerPort = ProcessRunnerAdapter{}
