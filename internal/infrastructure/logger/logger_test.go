package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert.log")
	l, err := Init(Config{Level: "debug", Env: "production", File: path})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	l.Infow("cycle done", "triggered", 1)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in file")
	}
	if Get() != l {
		t.Fatalf("Get should return the initialized logger")
	}
}

func TestWith(t *testing.T) {
	child := Nop().With("component", "engine")
	if child == nil || child.SugaredLogger == nil {
		t.Fatalf("With returned nil logger")
	}
}
