package executor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Token extraction errors
var (
	ErrNotJSON       = errors.New("response body is not JSON")
	ErrTokenMissing  = errors.New("token field not found")
	ErrTokenNotValue = errors.New("token field is not a non-empty string")
)

// Session holds the bearer token captured from a login response. It lives for
// one run and is passed explicitly to whoever needs it.
type Session struct {
	mu       sync.RWMutex
	token    string
	captured bool
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{}
}

// SetToken replaces the token unconditionally
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.captured = token != ""
}

// Capture stores token only if no token was captured yet. It reports whether
// the token was stored.
func (s *Session) Capture(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captured || token == "" {
		return false
	}
	s.token = token
	s.captured = true
	return true
}

// Token returns the current token, or "" if none
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HasToken reports whether a token is set
func (s *Session) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// AuthHeader returns {"Authorization": "Bearer <token>"}, or an empty map
// when no token is set
func (s *Session) AuthHeader() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + s.token}
}

// Clear drops the token
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.captured = false
}

// ExtractToken reads the string at field from a JSON body. field may be a
// dotted path such as "data.access_token".
func ExtractToken(body, field string) (string, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return "", ErrNotJSON
	}

	current := doc
	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrTokenMissing, field)
		}
		current, ok = obj[part]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrTokenMissing, field)
		}
	}

	token, ok := current.(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%w: %s", ErrTokenNotValue, field)
	}
	return token, nil
}
