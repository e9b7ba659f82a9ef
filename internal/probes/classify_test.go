package probes

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/su1ph3r/vigil/pkg/types"
)

func TestClassifyStatusPredicates(t *testing.T) {
	tests := []struct {
		name     string
		classify func(int) string
		status   int
		want     string
	}{
		{"unauth 401", ClassifyUnauth, 401, types.SeverityOK},
		{"unauth 403", ClassifyUnauth, 403, types.SeverityOK},
		{"unauth 200", ClassifyUnauth, 200, types.SeverityWarn},
		{"unauth 404", ClassifyUnauth, 404, types.SeverityWarn},
		{"unauth 500", ClassifyUnauth, 500, types.SeverityWarn},

		{"idor 401", ClassifyIDOR, 401, types.SeverityOK},
		{"idor 403", ClassifyIDOR, 403, types.SeverityOK},
		{"idor 404", ClassifyIDOR, 404, types.SeverityOK},
		{"idor 200", ClassifyIDOR, 200, types.SeverityWarn},
		{"idor 204", ClassifyIDOR, 204, types.SeverityWarn},
		{"idor 500", ClassifyIDOR, 500, types.SeverityWarn},

		{"tampered 401", ClassifyTamperedToken, 401, types.SeverityOK},
		{"tampered 403", ClassifyTamperedToken, 403, types.SeverityOK},
		{"tampered 200", ClassifyTamperedToken, 200, types.SeverityWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.classify(tt.status); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyInjection(t *testing.T) {
	tests := []struct {
		status    int
		want      string
		unhandled bool
	}{
		{400, types.SeverityOK, false},
		{422, types.SeverityOK, false},
		{401, types.SeverityOK, false},
		{200, types.SeverityWarn, false},
		{201, types.SeverityWarn, false},
		{500, types.SeverityWarn, true},
		{503, types.SeverityWarn, true},
		{302, types.SeverityWarn, false},
	}

	for _, tt := range tests {
		got, unhandled := ClassifyInjection(tt.status)
		if got != tt.want || unhandled != tt.unhandled {
			t.Errorf("ClassifyInjection(%d) = (%s, %v), want (%s, %v)", tt.status, got, unhandled, tt.want, tt.unhandled)
		}
	}
}

func TestClassifyRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		transport int
		want      string
	}{
		{"429 on fifth", []int{200, 200, 200, 200, 429}, 0, types.SeverityOK},
		{"first is 429", []int{429}, 0, types.SeverityOK},
		{"never limited", []int{200, 200, 401, 401}, 0, types.SeverityWarn},
		{"some transport errors", []int{200}, 3, types.SeverityWarn},
		{"all transport errors", nil, 15, types.SeverityFail},
		{"nothing sent", nil, 0, types.SeverityWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRateLimit(tt.statuses, tt.transport); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		missing, wrong int
		want           string
	}{
		{415, 415, types.SeverityOK},
		{400, 415, types.SeverityOK},
		{200, 415, types.SeverityWarn},
		{415, 200, types.SeverityWarn},
		{500, 500, types.SeverityWarn},
	}

	for _, tt := range tests {
		if got := ClassifyContentType(tt.missing, tt.wrong); got != tt.want {
			t.Errorf("ClassifyContentType(%d, %d) = %s, want %s", tt.missing, tt.wrong, got, tt.want)
		}
	}
}

func TestClassifyCORS(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"both present", map[string]string{"Access-Control-Allow-Origin": "*", "Access-Control-Allow-Methods": "GET, POST"}, types.SeverityOK},
		{"lowercase names", map[string]string{"access-control-allow-origin": "https://a", "access-control-allow-methods": "GET"}, types.SeverityOK},
		{"origin only", map[string]string{"Access-Control-Allow-Origin": "*"}, types.SeverityWarn},
		{"methods only", map[string]string{"Access-Control-Allow-Methods": "GET"}, types.SeverityWarn},
		{"none", map[string]string{}, types.SeverityWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &types.HTTPResponse{StatusCode: 204, Headers: tt.headers}
			if got := ClassifyCORS(resp); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMissingSecurityHeaders(t *testing.T) {
	full := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=63072000",
	}

	resp := &types.HTTPResponse{Headers: full}
	if missing := MissingSecurityHeaders(resp, "/properties"); len(missing) != 0 {
		t.Errorf("expected nothing missing, got %v", missing)
	}

	if missing := MissingSecurityHeaders(resp, "/login"); len(missing) != 1 || missing[0] != "Cache-Control: no-store" {
		t.Errorf("expected Cache-Control to be required on /login, got %v", missing)
	}

	empty := &types.HTTPResponse{Headers: map[string]string{"X-Content-Type-Options": "sniff"}}
	missing := MissingSecurityHeaders(empty, "/")
	if len(missing) != 3 {
		t.Errorf("expected 3 missing entries, got %v", missing)
	}
	if ClassifySecurityHeaders(missing) != types.SeverityWarn {
		t.Error("expected warn when headers are missing")
	}
}

func TestTamperToken(t *testing.T) {
	for _, token := range []string{"abc123", "xyzA", "A", "opaque.", "eyJhbGciOi.eyJzdWIi.c6PA"} {
		got := TamperToken(token)
		if got == token {
			t.Errorf("TamperToken(%q) returned the same token", token)
		}
		if len(got) != len(token) {
			t.Errorf("TamperToken(%q) changed length: %q", token, got)
		}
		diff := 0
		for i := range token {
			if token[i] != got[i] {
				diff++
			}
		}
		if diff != 1 {
			t.Errorf("TamperToken(%q) changed %d characters: %q", token, diff, got)
		}
	}
}

func TestTamperToken_ChangesDecodedSignature(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"42"}`))

	for i := 0; i < 256; i++ {
		sig := make([]byte, 32)
		for j := range sig {
			sig[j] = byte(i*31 + j*7)
		}
		token := header + "." + payload + "." + base64.RawURLEncoding.EncodeToString(sig)

		tampered := TamperToken(token)
		parts := strings.Split(tampered, ".")
		if len(parts) != 3 || parts[0] != header || parts[1] != payload {
			t.Fatalf("header or payload changed: %q", tampered)
		}

		decoded, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			t.Fatalf("tampered signature is not base64url: %v", err)
		}
		if bytes.Equal(decoded, sig) {
			t.Fatalf("signature bytes unchanged for %q -> %q", token, tampered)
		}
	}
}
