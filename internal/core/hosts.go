package core

import (
	"net"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"remote-apt-dater/internal/types"
)

// ParseHostTargets parses a comma-separated list of user@host[:port]
// entries. Entries without a user take defaultUser. Empty entries and
// exact duplicates are dropped; order is preserved.
func ParseHostTargets(value string, defaultUser string) ([]types.HostTarget, error) {
	var targets []types.HostTarget
	seen := map[types.HostTarget]struct{}{}
	for _, entry := range strings.Split(value, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		target, err := ParseHostTarget(entry, defaultUser)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets, nil
}

func ParseHostTarget(value string, defaultUser string) (types.HostTarget, error) {
	entry := strings.TrimSpace(value)
	user := strings.TrimSpace(defaultUser)
	hostPart := entry
	if before, after, found := strings.Cut(entry, "@"); found {
		user = strings.TrimSpace(before)
		hostPart = strings.TrimSpace(after)
	}
	if user == "" {
		return types.HostTarget{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("ssh host '" + entry + "' has no user")
	}

	host := hostPart
	port := types.DefaultSSHPort
	if strings.HasPrefix(hostPart, "[") || strings.Count(hostPart, ":") == 1 {
		h, p, err := net.SplitHostPort(hostPart)
		if err != nil {
			return types.HostTarget{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("ssh host '" + entry + "' is malformed").
				WithCause(err)
		}
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 || parsed > 65535 {
			return types.HostTarget{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("ssh host '" + entry + "' has an invalid port")
		}
		host = h
		port = parsed
	}
	if strings.TrimSpace(host) == "" {
		return types.HostTarget{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("ssh host '" + entry + "' has no hostname")
	}
	return types.HostTarget{User: user, Host: host, Port: port}, nil
}
