package rate

import (
	"strconv"
	"strings"
)

// MajorRootPaths are the resource roots whose immediate ID is a major
// parameter. Buckets under different major parameters never share state.
var MajorRootPaths = []string{"channels", "guilds", "webhooks"}

// ParseBucketKey normalizes a path into a route key: the query string is
// dropped and every minor snowflake is blanked out, leaving only the major
// parameter.
func ParseBucketKey(path string) string {
	path = strings.SplitN(path, "?", 2)[0]

	parts := strings.Split(path, "/")
	if len(parts) < 1 {
		return path
	}

	parts = parts[1:] // [0] is just "" since URL

	var skip int

	for _, part := range MajorRootPaths {
		if part == parts[0] {
			skip = 2
			break
		}
	}

	// we need to remove IDs from these
	for ; skip < len(parts); skip++ {
		if _, err := strconv.Atoi(parts[skip]); err == nil {
			// is a number, DELET
			parts[skip] = ""
		}
	}

	// The emoji after /reactions/ is not a snowflake, but it's not part of
	// the bucket either.
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "reactions" {
			parts[i+1] = ""
			break
		}
	}

	// rejoin url
	path = strings.Join(parts, "/")
	return "/" + path
}

// MajorParameter extracts the major parameter ID from a path, or "" if the
// path has none.
func MajorParameter(path string) string {
	path = strings.SplitN(path, "?", 2)[0]

	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return ""
	}

	parts = parts[1:]

	for _, part := range MajorRootPaths {
		if part == parts[0] {
			return parts[1]
		}
	}

	return ""
}
