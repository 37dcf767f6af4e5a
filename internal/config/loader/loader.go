// Package loader reads configuration files and environment variables into
// typed configuration structs.
//
// TOML and YAML files are supported; the format is chosen from the file
// extension. Environment variables are applied on top of file values.
package loader

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a file extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// FileLoader decodes a configuration file into a struct.
type FileLoader interface {
	// Load decodes the configured file into v.
	// A missing file is not an error: v is left unchanged and found is false.
	Load(v any) (found bool, err error)

	// LoadFromReader decodes configuration read from r into v.
	LoadFromReader(r io.Reader, v any) error
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// ForPath returns the loader matching the extension of path.
func ForPath(path string) (FileLoader, error) {
	return ForPathWithFS(DefaultFS(), path)
}

// ForPathWithFS returns the loader matching the extension of path, reading
// through fsys.
func ForPathWithFS(fsys FileSystem, path string) (FileLoader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoaderWithFS(fsys, path), nil
	case ".yaml", ".yml":
		return NewYAMLLoaderWithFS(fsys, path), nil
	default:
		return nil, &ParseError{Path: path, Message: "unknown extension", Err: ErrUnsupportedFormat}
	}
}

// readFile reads path, reporting a missing file as found == false.
func readFile(fsys FileSystem, path string) (data []byte, found bool, err error) {
	data, err = fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil // File doesn't exist, not an error
		}
		return nil, false, err
	}
	return data, true, nil
}
