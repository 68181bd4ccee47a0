package core

import (
	"cmp"
	"sort"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"

	"remote-apt-dater/internal/types"
)

// versionCache memoizes parsed Debian versions; values that fail to
// parse are remembered as invalid.
type versionCache struct {
	deb     map[string]debversion.Version
	invalid map[string]struct{}
}

func newVersionCache() *versionCache {
	return &versionCache{
		deb:     map[string]debversion.Version{},
		invalid: map[string]struct{}{},
	}
}

func (c *versionCache) debVersion(value string) (debversion.Version, bool) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, true
	}
	if _, bad := c.invalid[value]; bad {
		return debversion.Version{}, false
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		c.invalid[value] = struct{}{}
		return debversion.Version{}, false
	}
	c.deb[value] = parsed
	return parsed, true
}

func (c *versionCache) valid(value string) bool {
	_, ok := c.debVersion(value)
	return ok
}

// compare orders two version strings by Debian rules on their leading
// token, falling back to plain string order when either side does not
// parse.
func (c *versionCache) compare(a string, b string) int {
	v1, ok1 := c.debVersion(leadingVersion(a))
	v2, ok2 := c.debVersion(leadingVersion(b))
	if ok1 && ok2 {
		if order := cmp.Compare(v1.Compare(v2), 0); order != 0 {
			return order
		}
	}
	return strings.Compare(a, b)
}

// SortUpdates returns the set ordered by package name, then by version.
func SortUpdates(set types.UpdateSet) []types.PendingUpdate {
	updates := set.Items()
	cache := newVersionCache()
	sort.Slice(updates, func(i, j int) bool {
		if updates[i].Package != updates[j].Package {
			return updates[i].Package < updates[j].Package
		}
		return cache.compare(updates[i].Version, updates[j].Version) < 0
	})
	return updates
}

// IsDebianVersion reports whether the leading token of value is a valid
// Debian version string.
func IsDebianVersion(value string) bool {
	return newVersionCache().valid(leadingVersion(value))
}
