package library

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// loadBuiltins parses the definitions shipped with the binary.
func (l *Loader) loadBuiltins() ([]*Definition, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("failed to read built-in definitions: %w", err)
	}

	var defs []*Definition
	for _, entry := range entries {
		data, err := fs.ReadFile(builtinFS, "builtin/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in %s: %w", entry.Name(), err)
		}
		def, err := l.parse(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// MaterializeBuiltins writes the built-in definition files into dir so users
// have editable starting points. Existing files are never overwritten.
func MaterializeBuiltins(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}

	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return fmt.Errorf("failed to read built-in definitions: %w", err)
	}

	for _, entry := range entries {
		target := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		data, err := fs.ReadFile(builtinFS, "builtin/"+entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read built-in %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	}
	return nil
}
