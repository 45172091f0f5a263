package store

import (
	"fmt"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir with sequential run ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	n := 0
	s, err := Open(path, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("run-%03d", n)
	}))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(modelHash string) Run {
	return Run{
		ModelPath:        "models/pi.xml",
		ModelHash:        modelHash,
		Prefix:           "nwocg",
		SourceHash:       "src-" + modelHash,
		Blocks:           10,
		Operations:       6,
		Delays:           1,
		GeneratorVersion: "0.1.0",
		RecordVersion:    "1",
	}
}
