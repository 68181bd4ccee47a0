package ports

import "remote-apt-dater/internal/types"

type ConfigPort interface {
	Load() (types.Config, error)
}
