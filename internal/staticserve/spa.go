package staticserve

import "strings"

// ShouldUseSPAFallback implements the eligibility truth table from
// spec.md §4.6: exact "/", "/api/"-prefixed, "/_"-prefixed, and any path
// containing "." are all ineligible; everything else falls back to the
// SPA's index.html.
func ShouldUseSPAFallback(requestPath string) bool {
	if requestPath == "/" {
		return false
	}
	if strings.HasPrefix(requestPath, "/api/") {
		return false
	}
	if strings.HasPrefix(requestPath, "/_") {
		return false
	}
	if strings.Contains(requestPath, ".") {
		return false
	}
	return true
}

// ApplyCleanURLs strips a trailing ".html" unless the path is literally
// "/index.html". Idempotent: applying it to an already-clean path is a
// no-op.
func ApplyCleanURLs(requestPath string) string {
	if requestPath == "/index.html" {
		return requestPath
	}
	if strings.HasSuffix(requestPath, ".html") {
		return strings.TrimSuffix(requestPath, ".html")
	}
	return requestPath
}

// ApplyTrailingSlash adds or strips a trailing slash per the policy
// flag. When add is true, a slash is appended unless the path already
// ends in one or contains a ".". When add is false, a trailing slash is
// stripped unless the path is the root "/". Idempotent in both
// directions.
func ApplyTrailingSlash(requestPath string, add bool) string {
	if add {
		if strings.HasSuffix(requestPath, "/") || strings.Contains(requestPath, ".") {
			return requestPath
		}
		return requestPath + "/"
	}
	if requestPath != "/" && strings.HasSuffix(requestPath, "/") {
		return strings.TrimSuffix(requestPath, "/")
	}
	return requestPath
}
