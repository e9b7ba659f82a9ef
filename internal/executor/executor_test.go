package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/su1ph3r/vigil/pkg/types"
)

func testSettings() types.HTTPSettings {
	s := types.DefaultConfig().HTTP
	s.Timeout = 2 * time.Second
	return s
}

func newTestExecutor(t *testing.T, baseURL string) *HTTPExecutor {
	t.Helper()
	exec, err := New(baseURL, testSettings())
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return exec
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "localhost:8080", "ftp://example.com", "http://"} {
		_, err := New(base, testSettings())
		if err == nil {
			t.Errorf("expected error for base URL %q", base)
			continue
		}
		if !errors.Is(err, types.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration for %q, got %v", base, err)
		}
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://api.test", "/users", "http://api.test/users"},
		{"http://api.test/", "/users", "http://api.test/users"},
		{"http://api.test/v1", "users", "http://api.test/v1/users"},
		{"http://api.test", "", "http://api.test"},
		{"http://api.test", "https://other.test/x", "https://other.test/x"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestExecute_AddsJSONContentTypeForBody(t *testing.T) {
	var gotCT, gotBody, gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		gotMethod = r.Method
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(201)
	}))
	defer ts.Close()

	exec := newTestExecutor(t, ts.URL)
	resp, err := exec.Execute(context.Background(), Request{
		Method: "post",
		Path:   "/users",
		Body:   []byte(`{"name":"a"}`),
	})
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Errorf("expected status 201, got %d", resp.StatusCode)
	}
	if gotCT != "application/json" {
		t.Errorf("expected application/json Content-Type, got %q", gotCT)
	}
	if gotMethod != "POST" {
		t.Errorf("expected method to be upper-cased to POST, got %q", gotMethod)
	}
	if gotPath != "/users" {
		t.Errorf("expected path /users, got %q", gotPath)
	}
	if gotBody != `{"name":"a"}` {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestExecute_KeepsExplicitContentType(t *testing.T) {
	var gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
	}))
	defer ts.Close()

	exec := newTestExecutor(t, ts.URL)
	_, err := exec.Execute(context.Background(), Request{
		Method:  "POST",
		Path:    "/x",
		Body:    []byte(`{}`),
		Headers: map[string]string{"content-type": "text/plain"},
	})
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if gotCT != "text/plain" {
		t.Errorf("expected caller Content-Type to be kept, got %q", gotCT)
	}
}

func TestExecute_NoContentTypeWithoutBody(t *testing.T) {
	var gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
	}))
	defer ts.Close()

	exec := newTestExecutor(t, ts.URL)
	if _, err := exec.Execute(context.Background(), Request{Method: "GET", Path: "/x"}); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if gotCT != "" {
		t.Errorf("expected no Content-Type without body, got %q", gotCT)
	}
}

func TestExecute_OmitContentType(t *testing.T) {
	var gotCT string
	var sawHeader bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["Content-Type"]
		gotCT = r.Header.Get("Content-Type")
	}))
	defer ts.Close()

	exec := newTestExecutor(t, ts.URL)
	_, err := exec.Execute(context.Background(), Request{
		Method:          "POST",
		Path:            "/x",
		Body:            []byte(`{"a":1}`),
		OmitContentType: true,
	})
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if sawHeader {
		t.Errorf("expected Content-Type to be omitted, got %q", gotCT)
	}
}

func TestExecute_ErrorStatusesAreResults(t *testing.T) {
	for _, code := range []int{400, 401, 404, 429, 500, 503} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "yes")
			w.WriteHeader(code)
			w.Write([]byte(`{"error":"nope"}`))
		}))

		exec := newTestExecutor(t, ts.URL)
		resp, err := exec.Execute(context.Background(), Request{Method: "GET", Path: "/"})
		ts.Close()

		if err != nil {
			t.Errorf("status %d: expected no error, got %v", code, err)
			continue
		}
		if resp.StatusCode != code {
			t.Errorf("expected status %d, got %d", code, resp.StatusCode)
		}
		if resp.Body != `{"error":"nope"}` {
			t.Errorf("status %d: unexpected body %q", code, resp.Body)
		}
		if resp.Header("x-test") != "yes" {
			t.Errorf("status %d: expected X-Test header to be captured", code)
		}
	}
}

func TestExecute_ConnectionRefusedIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	exec := newTestExecutor(t, url)
	resp, err := exec.Execute(context.Background(), Request{Method: "GET", Path: "/users"})
	if err == nil {
		t.Fatal("expected transport error for closed server")
	}
	if resp != nil {
		t.Errorf("expected nil response on transport error")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected errors.Is(err, ErrTransport), got %v", err)
	}
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if terr.Method != "GET" || !strings.HasSuffix(terr.URL, "/users") {
		t.Errorf("unexpected transport error details: %+v", terr)
	}
}

func TestExecute_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	settings := testSettings()
	settings.Timeout = 50 * time.Millisecond
	exec, err := New(ts.URL, settings)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	_, err = exec.Execute(context.Background(), Request{Method: "GET", Path: "/slow"})
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if !terr.Timeout() {
		t.Errorf("expected timeout to be reported, got %v", terr.Err)
	}
}

func TestExecute_DoesNotFollowRedirectsByDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.WriteHeader(200)
	}))
	defer ts.Close()

	exec := newTestExecutor(t, ts.URL)
	resp, err := exec.Execute(context.Background(), Request{Method: "GET", Path: "/old"})
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 to be observed, got %d", resp.StatusCode)
	}
}

func TestExecute_AppliesDefaultHeaders(t *testing.T) {
	var gotUA, gotCustom string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Env")
	}))
	defer ts.Close()

	settings := testSettings()
	settings.Headers = map[string]string{"X-Env": "staging"}
	exec, err := New(ts.URL, settings)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if _, err := exec.Execute(context.Background(), Request{Method: "GET", Path: "/"}); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if gotUA != settings.UserAgent {
		t.Errorf("expected User-Agent %q, got %q", settings.UserAgent, gotUA)
	}
	if gotCustom != "staging" {
		t.Errorf("expected X-Env header, got %q", gotCustom)
	}
}

func TestExecute_LogsExchanges(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(204)
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "requests.json")
	logger, err := NewRequestLogger(path, "run-1")
	if err != nil {
		t.Fatalf("NewRequestLogger() returned error: %v", err)
	}

	exec := newTestExecutor(t, ts.URL)
	exec.SetLogger(logger)

	exec.Execute(context.Background(), Request{
		Method:  "GET",
		Path:    "/a",
		Headers: map[string]string{"Authorization": "Bearer secret"},
	})
	exec.Execute(context.Background(), Request{Method: "DELETE", Path: "/b"})

	if logger.Count() != 2 {
		t.Errorf("expected 2 logged entries, got %d", logger.Count())
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("request log is not a JSON array: %v\n%s", err, data)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" {
		t.Errorf("expected run id run-1, got %q", entries[0].RunID)
	}
	if entries[0].Request.Headers["Authorization"] != "[REDACTED]" {
		t.Errorf("expected Authorization to be redacted, got %q", entries[0].Request.Headers["Authorization"])
	}
	if entries[1].Response == nil || entries[1].Response.StatusCode != 204 {
		t.Errorf("expected second entry to record status 204")
	}
}

func TestRequestLogger_Disabled(t *testing.T) {
	logger, err := NewRequestLogger("", "")
	if err != nil {
		t.Fatalf("NewRequestLogger() returned error: %v", err)
	}
	if err := logger.Log(nil, nil, 0, nil); err != nil {
		t.Errorf("disabled logger should ignore entries, got %v", err)
	}
	if logger.Count() != 0 {
		t.Errorf("expected count 0, got %d", logger.Count())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on disabled logger returned %v", err)
	}
}
