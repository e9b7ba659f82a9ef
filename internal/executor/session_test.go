package executor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSession_AuthHeaderEmptyWithoutToken(t *testing.T) {
	s := NewSession()
	if s.HasToken() {
		t.Fatal("new session should have no token")
	}
	h := s.AuthHeader()
	if h == nil || len(h) != 0 {
		t.Errorf("expected empty non-nil map, got %v", h)
	}
}

func TestSession_AuthHeaderBearer(t *testing.T) {
	s := NewSession()
	s.SetToken("abc123")
	h := s.AuthHeader()
	if h["Authorization"] != "Bearer abc123" {
		t.Errorf("expected Bearer abc123, got %q", h["Authorization"])
	}
}

func TestSession_CaptureFirstWins(t *testing.T) {
	s := NewSession()
	if !s.Capture("first") {
		t.Fatal("expected first capture to succeed")
	}
	if s.Capture("second") {
		t.Error("expected second capture to be ignored")
	}
	if s.Token() != "first" {
		t.Errorf("expected token 'first', got %q", s.Token())
	}
	if s.Capture("") {
		t.Error("empty token must never be captured")
	}

	s.Clear()
	if s.HasToken() {
		t.Error("expected token cleared")
	}
	if !s.Capture("third") {
		t.Error("expected capture to succeed after Clear")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		want    string
		wantErr error
	}{
		{"top level", `{"token":"abc123"}`, "token", "abc123", nil},
		{"nested", `{"data":{"access_token":"xyz"}}`, "data.access_token", "xyz", nil},
		{"extra fields tolerated", `{"token":"t","user":{"id":1}}`, "token", "t", nil},
		{"not json", `<html>ok</html>`, "token", "", ErrNotJSON},
		{"missing", `{"jwt":"abc"}`, "token", "", ErrTokenMissing},
		{"nested missing", `{"data":"flat"}`, "data.token", "", ErrTokenMissing},
		{"not a string", `{"token":42}`, "token", "", ErrTokenNotValue},
		{"empty string", `{"token":""}`, "token", "", ErrTokenNotValue},
		{"array body", `[{"token":"a"}]`, "token", "", ErrTokenMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.body, tt.field)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPacer_Disabled(t *testing.T) {
	p := NewPacer(0)
	if p.Enabled() {
		t.Fatal("expected pacer disabled for zero interval")
	}
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() on disabled pacer returned error: %v", err)
	}
}

func TestPacer_SpacesRequests(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait() returned error: %v", err)
		}
	}
	// first is immediate, three more spaced by 20ms
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected at least ~60ms of pacing, got %s", elapsed)
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait() should not block: %v", err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected error from Wait() on cancelled context")
	}
}
