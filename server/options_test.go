package server

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewAppliesOptionsAndDefaults(t *testing.T) {
	t.Parallel()
	logger := logrus.New()

	s := New(WithLogger(logger), WithListenBacklog(8), WithStartDir("/tmp"))

	if s.logger != logger {
		t.Fatalf("WithLogger not applied")
	}
	if s.backlog != 8 {
		t.Fatalf("backlog = %d, want 8", s.backlog)
	}
	if s.startDir != "/tmp" {
		t.Fatalf("startDir = %q, want /tmp", s.startDir)
	}
}

func TestNewDefaultsStartDirToWorkingDirectory(t *testing.T) {
	t.Parallel()
	s := New()
	if s.startDir == "" {
		t.Fatalf("expected a non-empty default startDir")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if s.startDir != wd {
		t.Fatalf("startDir = %q, want %q", s.startDir, wd)
	}
}
