package executor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/su1ph3r/vigil/pkg/types"
)

const bodyPreviewLimit = 500

// RequestLogger writes every exchange to a JSON array file
type RequestLogger struct {
	mu      sync.Mutex
	file    *os.File
	runID   string
	count   int
	enabled bool
}

// LogEntry represents a logged request/response pair
type LogEntry struct {
	RunID      string          `json:"run_id"`
	Timestamp  time.Time       `json:"timestamp"`
	RequestNum int             `json:"request_num"`
	Request    *LoggedRequest  `json:"request"`
	Response   *LoggedResponse `json:"response,omitempty"`
	Duration   string          `json:"duration"`
	Error      string          `json:"error,omitempty"`
}

// LoggedRequest contains request details for logging
type LoggedRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// LoggedResponse contains response details for logging
type LoggedResponse struct {
	StatusCode    int               `json:"status_code"`
	Status        string            `json:"status"`
	Headers       map[string]string `json:"headers,omitempty"`
	ContentLength int64             `json:"content_length"`
	BodyPreview   string            `json:"body_preview,omitempty"`
}

// NewRequestLogger creates a request logger. An empty path returns a
// disabled logger.
func NewRequestLogger(filePath, runID string) (*RequestLogger, error) {
	if filePath == "" {
		return &RequestLogger{enabled: false}, nil
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create request log: %w", err)
	}

	if _, err := file.WriteString("[\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write request log: %w", err)
	}

	return &RequestLogger{
		file:    file,
		runID:   runID,
		enabled: true,
	}, nil
}

// Log appends one exchange. resp is nil when err is set.
func (l *RequestLogger) Log(req *types.HTTPRequest, resp *types.HTTPResponse, d time.Duration, err error) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	l.count++

	entry := LogEntry{
		RunID:      l.runID,
		Timestamp:  time.Now(),
		RequestNum: l.count,
		Duration:   d.String(),
	}

	if req != nil {
		entry.Request = &LoggedRequest{
			Method:  req.Method,
			URL:     req.URL,
			Headers: redactHeaders(req.Headers),
			Body:    req.Body,
		}
	}

	if resp != nil {
		entry.Response = &LoggedResponse{
			StatusCode:    resp.StatusCode,
			Status:        resp.Status,
			Headers:       resp.Headers,
			ContentLength: resp.ContentLength,
			BodyPreview:   Preview(resp.Body, bodyPreviewLimit),
		}
	}

	if err != nil {
		entry.Error = err.Error()
	}

	if l.count > 1 {
		if _, werr := l.file.WriteString(",\n"); werr != nil {
			return werr
		}
	}

	data, merr := json.MarshalIndent(entry, "  ", "  ")
	if merr != nil {
		return merr
	}

	_, werr := l.file.Write(append([]byte("  "), data...))
	return werr
}

// Close terminates the JSON array and closes the file
func (l *RequestLogger) Close() error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	l.file.WriteString("\n]\n")
	err := l.file.Close()
	l.file = nil
	return err
}

// Count returns the number of logged entries
func (l *RequestLogger) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Preview truncates s to limit bytes, marking the cut
func Preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// redactHeaders masks credentials so the log can be shared
func redactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "Cookie":
			out[k] = "[REDACTED]"
		default:
			out[k] = v
		}
	}
	return out
}
