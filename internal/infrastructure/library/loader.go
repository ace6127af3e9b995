// Package library provides the session and breathing-exercise definition
// library: built-in definitions shipped with the binary plus user-authored
// YAML files loaded from the library directory.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sadhanaworks/sadhana/internal/domain/practice"
)

// Definition represents the YAML structure of a library file. One file may
// define any number of sessions and breathing exercises.
type Definition struct {
	Sessions  []practice.Session           `yaml:"sessions"`
	Breathing []practice.BreathingExercise `yaml:"breathing"`
}

// Loader errors.
var (
	ErrNotYAMLFile = errors.New("file is not a YAML file")
	ErrEmptyFile   = errors.New("file is empty")
)

// Loader parses library definition files.
type Loader struct{}

// NewLoader creates a new definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile loads one definition file, validating every entry.
func (l *Loader) LoadFile(path string) (*Definition, error) {
	if !isYAMLPath(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotYAMLFile, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.parse(path, data)
}

// LoadDir loads every YAML definition file under dir, recursively. Files
// that fail to parse or validate are reported in the joined error; valid
// definitions from other files are still returned.
func (l *Loader) LoadDir(dir string) ([]*Definition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var defs []*Definition
	var loadErrors []error

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLPath(path) {
			return nil
		}

		def, err := l.LoadFile(path)
		if err != nil {
			loadErrors = append(loadErrors, err)
			return nil
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return defs, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}

	if len(loadErrors) > 0 {
		return defs, errors.Join(loadErrors...)
	}
	return defs, nil
}

// parse unmarshals and validates one definition file's contents.
func (l *Loader) parse(path string, data []byte) (*Definition, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}

	var errs []error
	for i := range def.Sessions {
		if err := def.Sessions[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: session %d: %w", path, i, err))
		}
	}
	for i := range def.Breathing {
		if err := def.Breathing[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: breathing exercise %d: %w", path, i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &def, nil
}

// isYAMLPath reports whether the path looks like a YAML definition file.
func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
