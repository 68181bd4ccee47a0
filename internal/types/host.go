package types

import (
	"net"
	"strconv"
)

const DefaultSSHPort = 22

type HostTarget struct {
	User string `key:"user" validate:"required"`
	Host string `key:"host" validate:"required"`
	Port int    `key:"port" validate:"gte=1,lte=65535"`
}

// Address returns the dialable host:port pair.
func (h HostTarget) Address() string {
	port := h.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(h.Host, strconv.Itoa(port))
}

func (h HostTarget) String() string {
	if h.Port == 0 || h.Port == DefaultSSHPort {
		return h.User + "@" + h.Host
	}
	return h.User + "@" + h.Address()
}
