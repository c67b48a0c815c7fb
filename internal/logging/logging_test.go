package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"abcd1234efgh5678", "abcd...5678"},
	}

	for _, tt := range tests {
		if got := SanitizeToken(tt.token); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	inHome := filepath.Join(home, ".clipforge", "uploads", "clip.mp4")
	if got := SanitizePath(inHome); got != "~"+inHome[len(home):] {
		t.Errorf("SanitizePath(%q) = %q", inHome, got)
	}

	outside := "/tmp/clip.mp4"
	if got := SanitizePath(outside); got != outside {
		t.Errorf("SanitizePath(%q) = %q", outside, got)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "bogus", ""} {
		if logger := NewLogger(level); logger == nil {
			t.Errorf("NewLogger(%q) returned nil", level)
		}
	}
}
