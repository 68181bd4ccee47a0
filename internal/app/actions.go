package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/types"
)

// ActionTable maps menu action names to handlers. The presentation layer
// invokes actions by name only.
type ActionTable map[types.ActionName]func(context.Context)

// Invoke runs the named action. Unknown names are logged and ignored.
func (t ActionTable) Invoke(ctx context.Context, name types.ActionName) bool {
	handler, ok := t[name]
	if !ok {
		log.Warn().Str("action", string(name)).Msg("unknown action")
		return false
	}
	log.Debug().Str("action", string(name)).Msg("action invoked")
	handler(ctx)
	return true
}
