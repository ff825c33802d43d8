package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireReleaseCycle(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "forged.pid"))

	if err := f.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	pid, err := f.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Expected PID %d, got %d", os.Getpid(), pid)
	}

	running, pid, err := f.IsRunning()
	if err != nil || !running || pid != os.Getpid() {
		t.Errorf("Expected running with own PID, got running=%v pid=%d err=%v", running, pid, err)
	}

	if err := f.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if running, _, _ := f.IsRunning(); running {
		t.Error("Still reported running after release")
	}
}

func TestAcquireRejectsLiveHolder(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "forged.pid"))
	if err := f.Acquire(); err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}
	// The current process is alive, so a second acquire must fail.
	if err := f.Acquire(); err == nil {
		t.Error("Second acquire unexpectedly succeeded")
	}
}

func TestAcquireReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forged.pid")
	// PID 1 is never "dead", so use an implausibly large one instead.
	if err := os.WriteFile(path, []byte(strconv.Itoa(1<<22+12345)), 0644); err != nil {
		t.Fatal(err)
	}

	f := New(path)
	if err := f.Acquire(); err != nil {
		t.Fatalf("Acquire over stale file failed: %v", err)
	}
	if pid, _ := f.Read(); pid != os.Getpid() {
		t.Errorf("Stale PID not replaced, got %d", pid)
	}
}

func TestIsRunningMissingFile(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "missing.pid"))
	running, pid, err := f.IsRunning()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if running || pid != 0 {
		t.Errorf("Expected not running, got running=%v pid=%d", running, pid)
	}
}
