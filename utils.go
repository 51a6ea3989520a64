package foundry

import (
	"net/url"
	"strings"
)

func isHTTPURL(val string) bool {
	parsed, err := url.Parse(val)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// pathEscape escapes a resource id before it is spliced into a URL path.
func pathEscape(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
