package ports

import (
	"context"

	"remote-apt-dater/internal/types"
)

// RemoteCheckPort runs the dry-run upgrade on every host and returns the
// combined set of pending updates. It stops at the first host that
// fails and never retries.
type RemoteCheckPort interface {
	Check(ctx context.Context, hosts []types.HostTarget) (types.UpdateSet, error)
}
