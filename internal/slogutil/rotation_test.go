package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100b", 100},
		{"1KB", 1024},
		{" 10kb ", 10240},
		{"10MB", 10 << 20},
		{"1GB", 1 << 30},
		{"1.5MB", int64(1.5 * (1 << 20))},
		{"-1MB", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "closure.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	line := append(bytes.Repeat([]byte("a"), 29), '\n')
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if !bytes.Equal(data, line) {
			t.Errorf("%s holds %q, want one whole record", p, data)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("more backups kept than configured")
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.log")

	rf, err := OpenRotatingFile(path, 10, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	defer rf.Close()

	_, _ = rf.Write([]byte("first-----\n"))
	_, _ = rf.Write([]byte("second\n"))

	data, _ := os.ReadFile(path)
	if string(data) != "second\n" {
		t.Errorf("file = %q", data)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("backup written with maxBackups 0")
	}
}

func TestNewFileLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()

	for _, size := range []string{"1MB", ""} {
		path := filepath.Join(dir, "rot"+size+".log")
		logger, closer, err := NewFileLoggerWithRotation(path, slog.LevelInfo, size, 3)
		if err != nil {
			t.Fatalf("NewFileLoggerWithRotation(%q): %v", size, err)
		}
		logger.Info("Closure finished", "pass", "impl")
		_ = closer.Close()

		data, _ := os.ReadFile(path)
		if !bytes.Contains(data, []byte("pass=impl")) {
			t.Errorf("size %q: log = %q", size, data)
		}
	}
}
