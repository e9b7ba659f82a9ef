package probes

import (
	"strings"

	"github.com/su1ph3r/vigil/pkg/types"
)

// Status-class predicates. Each maps what was observed to a severity and is
// free of I/O.

func isRejected(status int) bool {
	return status == 401 || status == 403
}

func is4xx(status int) bool {
	return status >= 400 && status < 500
}

// ClassifyUnauth grades a request sent without credentials
func ClassifyUnauth(status int) string {
	if isRejected(status) {
		return types.SeverityOK
	}
	return types.SeverityWarn
}

// ClassifyIDOR grades an authenticated mutation of another user's resource
func ClassifyIDOR(status int) string {
	if isRejected(status) || status == 404 {
		return types.SeverityOK
	}
	return types.SeverityWarn
}

// ClassifyInjection grades a request carrying an SQL-like payload. The
// second return value is set for 5xx responses, which suggest the input
// reached something that could not handle it.
func ClassifyInjection(status int) (severity string, unhandled bool) {
	switch {
	case is4xx(status):
		return types.SeverityOK, false
	case status >= 500:
		return types.SeverityWarn, true
	default:
		return types.SeverityWarn, false
	}
}

// ClassifyTamperedToken grades a request sent with a modified token
func ClassifyTamperedToken(status int) string {
	if isRejected(status) {
		return types.SeverityOK
	}
	return types.SeverityWarn
}

// ClassifyRateLimit grades a burst. statuses holds the responses received;
// transportErrors counts requests that got none.
func ClassifyRateLimit(statuses []int, transportErrors int) string {
	for _, s := range statuses {
		if s == 429 {
			return types.SeverityOK
		}
	}
	if len(statuses) == 0 && transportErrors > 0 {
		return types.SeverityFail
	}
	return types.SeverityWarn
}

// ClassifyContentType grades the two content-type requests: one without a
// Content-Type header and one with a wrong one
func ClassifyContentType(missingStatus, wrongStatus int) string {
	if is4xx(missingStatus) && is4xx(wrongStatus) {
		return types.SeverityOK
	}
	return types.SeverityWarn
}

// ClassifyCORS grades a preflight response by its allow headers
func ClassifyCORS(resp *types.HTTPResponse) string {
	if resp.Header("Access-Control-Allow-Origin") != "" && resp.Header("Access-Control-Allow-Methods") != "" {
		return types.SeverityOK
	}
	return types.SeverityWarn
}

// securityHeaders are expected on every response
var securityHeaders = []string{
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Strict-Transport-Security",
}

// authSensitivePaths mark endpoints whose responses must not be cached
var authSensitivePaths = []string{
	"login", "signin", "auth", "token", "password", "session", "account", "me",
}

// MissingSecurityHeaders lists the security headers absent from resp.
// Auth-sensitive paths additionally need Cache-Control: no-store.
func MissingSecurityHeaders(resp *types.HTTPResponse, path string) []string {
	var missing []string
	for _, name := range securityHeaders {
		if resp.Header(name) == "" {
			missing = append(missing, name)
		}
	}

	if nosniff := resp.Header("X-Content-Type-Options"); nosniff != "" && !strings.EqualFold(strings.TrimSpace(nosniff), "nosniff") {
		missing = append(missing, "X-Content-Type-Options: nosniff")
	}

	if isAuthSensitive(path) && !strings.Contains(strings.ToLower(resp.Header("Cache-Control")), "no-store") {
		missing = append(missing, "Cache-Control: no-store")
	}

	return missing
}

// ClassifySecurityHeaders grades a response by its missing headers
func ClassifySecurityHeaders(missing []string) string {
	if len(missing) == 0 {
		return types.SeverityOK
	}
	return types.SeverityWarn
}

func isAuthSensitive(path string) bool {
	for _, segment := range strings.Split(strings.ToLower(path), "/") {
		for _, s := range authSensitivePaths {
			if segment == s {
				return true
			}
		}
	}
	return false
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// TamperToken returns token with one character replaced. For a JWT the first
// character of the signature segment is changed; otherwise the middle one.
// The trailing character of a base64 segment may only carry padding bits, so
// it is never the one chosen. A base64url character is replaced by the one
// 32 positions away, which flips the high bit of the first decoded byte.
func TamperToken(token string) string {
	if token == "" {
		return "x"
	}

	pos := len(token) / 2
	if dot := strings.LastIndexByte(token, '.'); dot >= 0 && dot < len(token)-1 {
		pos = dot + 1
	}

	b := []byte(token)
	if i := strings.IndexByte(base64URLAlphabet, b[pos]); i >= 0 {
		b[pos] = base64URLAlphabet[(i+32)%64]
	} else if b[pos] == 'A' {
		b[pos] = 'B'
	} else {
		b[pos] = 'A'
	}
	return string(b)
}
