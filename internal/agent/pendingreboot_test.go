//go:build unit

package agent

import (
	"testing"
)

func TestPendingRebootMarker_WriteReadClear(t *testing.T) {
	dir := t.TempDir()
	m := NewPendingRebootMarker(dir)

	if _, ok := m.Read(); ok {
		t.Fatal("expected no marker before Write")
	}

	if err := m.Write("1.2.3"); err != nil {
		t.Fatalf("unexpected error writing marker: %v", err)
	}

	version, ok := m.Read()
	if !ok {
		t.Fatal("expected marker present after Write")
	}
	if version != "1.2.3" {
		t.Errorf("got version %q, want 1.2.3", version)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("unexpected error clearing marker: %v", err)
	}
	if _, ok := m.Read(); ok {
		t.Error("expected no marker after Clear")
	}
}

func TestPendingRebootMarker_ClearWithoutWriteIsNoop(t *testing.T) {
	dir := t.TempDir()
	m := NewPendingRebootMarker(dir)
	if err := m.Clear(); err != nil {
		t.Fatalf("expected no error clearing absent marker, got: %v", err)
	}
}
