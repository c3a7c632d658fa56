package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/runoshun/quire/internal/domain"
)

// abs maps a slash-separated content path to the working tree.
// Paths are expected to be cleaned by domain.CleanContentPath.
func (c *Client) abs(p string) string {
	return filepath.Join(c.dir, filepath.FromSlash(p))
}

// ReadFile reads a file from the working tree. Directories are reported as
// missing files.
func (c *Client) ReadFile(p string) ([]byte, error) {
	if info, err := os.Stat(c.abs(p)); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", p, domain.ErrFileNotFound)
	}
	data, err := os.ReadFile(c.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", p, domain.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// WriteFile writes a file, creating parent directories.
func (c *Client) WriteFile(p string, data []byte) error {
	target := c.abs(p)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec // content files are world-readable
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// RemovePath removes a file or directory.
func (c *Client) RemovePath(p string) error {
	target := c.abs(p)
	if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", p, domain.ErrFileNotFound)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// MovePath renames a file or directory. The destination must not exist.
func (c *Client) MovePath(from, to string) error {
	src, dst := c.abs(from), c.abs(to)
	if _, err := os.Lstat(src); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", from, domain.ErrFileNotFound)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", to, domain.ErrEntryExists)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", to, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", from, to, err)
	}
	return nil
}
