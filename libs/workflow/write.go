package workflow

import (
	"fmt"
	"os"
)

// WriteFile replaces the file's content in place, keeping its permissions.
// With backup enabled the previous content is first copied to <path>.bak.
func WriteFile(path string, content string, backup bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error inspecting workflow file %s: %w", path, err)
	}
	mode := info.Mode().Perm()

	if backup {
		original, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading workflow file %s for backup: %w", path, err)
		}
		if err := os.WriteFile(path+".bak", original, mode); err != nil {
			return fmt.Errorf("error writing backup file %s.bak: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("error writing workflow file %s: %w", path, err)
	}
	return nil
}
