// Package storage writes exported notes and resources to the local disk.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Disk is a Store backed by the local filesystem
type Disk struct {
	DirMode  os.FileMode
	FileMode os.FileMode
}

// NewDisk returns a Disk with the usual 0755 / 0644 permissions
func NewDisk() *Disk {
	return &Disk{DirMode: 0o755, FileMode: 0o644}
}

// Exists reports whether anything is present at path
func (d *Disk) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// EnsureDir creates dir and its parents. An existing directory is not an error.
func (d *Disk) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, d.DirMode); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// WriteFile replaces the file at path with data
func (d *Disk) WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, d.FileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

const illegalChars = `\/:*?"<>|`

// SanitizeName turns a note title or a server-provided filename into a
// single path element that is valid on Windows, macOS and Linux.
func SanitizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalChars, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	// Windows drops trailing dots and spaces silently
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "untitled"
	}
	return name
}

// Within joins rel onto root and fails if the result escapes root
func Within(root, rel string) (string, error) {
	joined := filepath.Join(root, rel)
	r, err := filepath.Rel(root, joined)
	if err != nil {
		return "", fmt.Errorf("resolve %s under %s: %w", rel, root, err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", rel, root)
	}
	return joined, nil
}
