package misc

import (
	"fmt"
	"path/filepath"
)

// LogSavingCredentials emits a consistent message when persisting auth material.
func LogSavingCredentials(path string) {
	if path == "" {
		return
	}
	fmt.Printf("Saving credentials to %s\n", filepath.Clean(path))
}
