package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/su1ph3r/vigil/internal/executor"
	"github.com/su1ph3r/vigil/pkg/types"
)

// GenerateCurlCommand renders a request as a curl command. Relative request
// URLs are resolved against baseURL.
func GenerateCurlCommand(baseURL string, req *types.HTTPRequest) string {
	if req == nil {
		return ""
	}

	parts := []string{"curl"}

	// Method (GET is implied unless -d would turn it into POST)
	switch {
	case req.Method == "HEAD":
		parts = append(parts, "-I")
	case req.Method != "" && (req.Method != "GET" || req.Body != ""):
		parts = append(parts, "-X", req.Method)
	}

	// Headers (sorted for consistency)
	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == "content-length" || lower == "host" {
			continue
		}
		parts = append(parts, "-H", shellEscape(fmt.Sprintf("%s: %s", name, req.Headers[name])))
	}

	if req.Body != "" {
		parts = append(parts, "-d", shellEscape(req.Body))
	}

	target := req.URL
	if baseURL != "" {
		target = executor.JoinURL(baseURL, req.URL)
	}
	parts = append(parts, shellEscape(target))

	return strings.Join(parts, " ")
}

// shellEscape quotes s for POSIX shells
func shellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if isSafeString(s) {
		return s
	}
	// ' -> '\'' (end quote, escaped quote, start quote)
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// isSafeString reports whether s needs no quoting
func isSafeString(s string) bool {
	for _, c := range s {
		if (c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '.' || c == '-' || c == '_' || c == '/' || c == ':' {
			continue
		}
		return false
	}
	return true
}
