// Package buildinfo identifies the running binary in logs and window titles.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Version, Commit and Date are set at build time via -ldflags. When they are
// left at their defaults, the VCS stamp recorded by the go tool is used.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var stamp = sync.OnceValues(func() (rev string, dirty bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
})

// Short returns a compact build identifier: the release version if set,
// then the commit, then the VCS revision, then "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return abbrev(Commit)
	}
	if rev, dirty := stamp(); rev != "" {
		if dirty {
			return abbrev(rev) + "+dirty"
		}
		return abbrev(rev)
	}
	return "dev"
}

func abbrev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
