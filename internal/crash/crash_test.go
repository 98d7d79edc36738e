package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mapforge/internal/settings"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "MapForge Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesFileNextToSettings(t *testing.T) {
	root := t.TempDir()
	st, err := settings.Open(filepath.Join(root, settings.FileName))
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	defer func() { _ = st.Close() }()

	path, err := writeReport(st, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if !strings.Contains(path, filepath.Join(root, "crash")) {
		t.Fatalf("expected crash report under settings crash dir, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
}
