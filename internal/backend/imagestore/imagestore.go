// Package imagestore gives access to the directory holding the served image files.
//
// All lookups go through an os.Root so a requested name can never resolve outside the
// store directory, neither through ".." segments nor through symlinks.
package imagestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrInvalidPath is returned for names that are absolute or would leave the store root.
	ErrInvalidPath = errors.New("invalid image path")
	// ErrNotFound is returned for names that do not exist or name a directory.
	ErrNotFound = errors.New("image not found")
)

type ImageStore struct {
	directory string
	root      *os.Root
}

// Open creates directory if needed and opens it as the store root.
func Open(directory string) (*ImageStore, error) {
	if directory == "" {
		return nil, fmt.Errorf("image directory must not be empty")
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory %s: %w", directory, err)
	}
	root, err := os.OpenRoot(directory)
	if err != nil {
		return nil, fmt.Errorf("opening image directory %s: %w", directory, err)
	}
	return &ImageStore{directory: directory, root: root}, nil
}

func (s *ImageStore) Directory() string {
	return s.directory
}

func (s *ImageStore) Close() error {
	return s.root.Close()
}

// List returns the names of the top-level entries of the store, sorted.
// Directories and non-image files are listed like any other entry.
func (s *ImageStore) List() ([]string, error) {
	entries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("listing image directory %s: %w", s.directory, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open opens the regular file called name, a slash separated path relative to the store root.
// The caller must close the returned file.
func (s *ImageStore) Open(name string) (*os.File, fs.FileInfo, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, nil, err
	}

	file, err := s.root.Open(filepath.FromSlash(clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if isEscapeError(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidPath, name)
		}
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	return file, info, nil
}

// ReadFile returns the full contents of the file called name.
func (s *ImageStore) ReadFile(name string) ([]byte, error) {
	file, _, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func cleanName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if path.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	clean := path.Clean(name)
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return clean, nil
}

// isEscapeError reports whether err comes from os.Root refusing a path outside the root,
// which happens for symlinks pointing out of the store.
func isEscapeError(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return strings.Contains(pathErr.Err.Error(), "escapes from parent")
	}
	return false
}
