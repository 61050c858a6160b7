package update

import (
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// DevVersion marks builds that never self-update.
const DevVersion = "dev"

var versionTokenPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._+~-]*$`)

// IsDev reports whether raw identifies a development build.
func IsDev(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || strings.EqualFold(trimmed, DevVersion)
}

// ValidToken reports whether raw is a usable version marker.
func ValidToken(raw string) bool {
	return versionTokenPattern.MatchString(raw)
}

// CompareVersions orders two version markers.
// Markers such as 2023.04.28-14.51-beta are parsed as versions; when either side
// does not parse, the markers are compared lexicographically.
// It returns -1 if a < b, 0 if a == b, and 1 if a > b.
func CompareVersions(a string, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	av, aErr := goversion.NewVersion(a)
	bv, bErr := goversion.NewVersion(b)
	if aErr == nil && bErr == nil {
		return av.Compare(bv)
	}
	return strings.Compare(a, b)
}
