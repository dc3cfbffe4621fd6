package logreader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogPathFor(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		goos string
		want string
	}{
		{"windows", filepath.Join(home, "AppData", "LocalLow", "Wizards Of The Coast", "MTGA", "Player.log")},
		{"darwin", filepath.Join(home, "Library", "Logs", "Wizards Of The Coast", "MTGA", "Player.log")},
		{"linux", FallbackLogPath},
		{"freebsd", FallbackLogPath},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := logPathFor(tt.goos); got != tt.want {
				t.Errorf("logPathFor(%s) = %s, want %s", tt.goos, got, tt.want)
			}
		})
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	if !strings.HasSuffix(path, "Player.log") {
		t.Errorf("DefaultLogPath() = %s, want a Player.log path", path)
	}
}

func TestLogExists(t *testing.T) {
	dir := t.TempDir()

	exists, err := LogExists(filepath.Join(dir, "missing.log"))
	if err != nil || exists {
		t.Errorf("missing file: exists=%v err=%v", exists, err)
	}

	path := filepath.Join(dir, "Player.log")
	if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	exists, err = LogExists(path)
	if err != nil || !exists {
		t.Errorf("existing file: exists=%v err=%v", exists, err)
	}

	if _, err := LogExists(dir); err == nil {
		t.Error("expected error for directory")
	}
}
