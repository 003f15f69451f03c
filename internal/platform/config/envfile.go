package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// SetEnvValue rewrites key=value inside the .env file at path, preserving
// every other line and ensuring a final newline, per spec.md §6's
// requirement that the admin PUBLIC_DASHBOARD_ENABLED toggle persist back to
// the env file without disturbing the rest of it. Atomic write via
// renameio, the same pattern internal/userstore uses for its JSON document.
func SetEnvValue(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read env file: %w", err)
	}

	lines := splitLines(string(data))
	prefix := key + "="
	found := false

	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = prefix + value
			found = true

			break
		}
	}

	if !found {
		lines = append(lines, prefix+value)
	}

	out := strings.Join(lines, "\n") + "\n"

	if err := renameio.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}

	return nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}
