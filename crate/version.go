package crate

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Versions at which server behaviour changes.
const (
	VersionILike          = "4.1.0"
	VersionKeyColumnUsage = "3.0.0"
	VersionTableCatalog   = "2.3.0"
)

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if i := strings.IndexAny(v, "-+"); i > 0 {
		v = v[:i]
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// AtLeast reports whether version is greater than or equal to minimum. An
// unknown or malformed version never qualifies.
func AtLeast(version, minimum string) bool {
	v := canonical(version)
	if v == "" {
		return false
	}
	return semver.Compare(v, canonical(minimum)) >= 0
}

// Lowest returns the smallest valid version among versions, or "" if none
// is valid. A cluster is only as capable as its oldest node.
func Lowest(versions ...string) string {
	lowest := ""
	for _, v := range versions {
		c := canonical(v)
		if c == "" {
			continue
		}
		if lowest == "" || semver.Compare(c, canonical(lowest)) < 0 {
			lowest = v
		}
	}
	return lowest
}
