package ast

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Language versions at which evaluation rules change.
const (
	VersionBlockScoping   = "0.5.0"
	VersionCheckedMath    = "0.8.0"
	VersionTypedPanics    = "0.8.0"
	VersionTryCatch       = "0.6.0"
	VersionCustomErrors   = "0.8.4"
	DefaultCompilerVersion = "0.8.19"
)

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "+"); i >= 0 {
		v = v[:i]
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// ValidVersion reports whether v is a x.y.z compiler version.
func ValidVersion(v string) bool {
	return semver.IsValid(canonicalVersion(v))
}

// VersionAtLeast reports whether v >= min. An invalid v is treated as the newest version.
func VersionAtLeast(v, min string) bool {
	cv := canonicalVersion(v)
	if !semver.IsValid(cv) {
		return true
	}
	return semver.Compare(cv, canonicalVersion(min)) >= 0
}
