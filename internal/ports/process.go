package ports

import (
	"context"

	"remote-apt-dater/internal/types"
)

// ProcessRunnerPort launches a local command and waits for it to exit.
// A non-zero exit is reported in the result, not as an error.
type ProcessRunnerPort interface {
	Run(ctx context.Context, argv []string, extraEnv []string) (types.ProcessResult, error)
}
