package logreader

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// FallbackLogPath is used on platforms where the client does not run natively.
const FallbackLogPath = "/tmp/Player.log"

// DefaultLogPath returns the Player.log path for the current platform.
//
// Windows: ~/AppData/LocalLow/Wizards Of The Coast/MTGA/Player.log
// macOS:   ~/Library/Logs/Wizards Of The Coast/MTGA/Player.log
// other:   /tmp/Player.log
func DefaultLogPath() string {
	return logPathFor(runtime.GOOS)
}

func logPathFor(goos string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return FallbackLogPath
	}

	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "LocalLow", "Wizards Of The Coast", "MTGA", "Player.log")
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "Wizards Of The Coast", "MTGA", "Player.log")
	default:
		return FallbackLogPath
	}
}

// LogExists checks if the log file exists at the given path.
func LogExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("path is a directory, not a file")
	}
	return true, nil
}
