package domain

import (
	"crypto/sha1" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// TaskBranchNameLength is the number of hex characters in a generated branch name.
const TaskBranchNameLength = 7

// TaskBranchName returns the deterministic branch name for a task.
// created is truncated to window so retried submissions map to the same branch.
// Format: first 7 hex chars of sha1("<unix seconds>|<description>|<email>").
func TaskBranchName(created time.Time, window time.Duration, description, email string) string {
	if window > 0 {
		created = created.Truncate(window)
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%s|%s", created.Unix(), description, strings.ToLower(email))))
	return hex.EncodeToString(sum[:])[:TaskBranchNameLength]
}

// branchPattern is the subset of git ref names accepted as task branches.
// Every accepted name is also a safe URL path segment and directory name.
var branchPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateBranchName returns ErrInvalidBranchName for names that are not safe
// as a git ref, URL segment, or directory name.
func ValidateBranchName(name string) error {
	if !branchPattern.MatchString(name) || strings.Contains(name, "..") || strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("%q: %w", name, ErrInvalidBranchName)
	}
	return nil
}

// EscapeBranchSegment encodes a branch name for use as a URL path segment.
// It escapes twice because some routers decode %2F before handlers run.
func EscapeBranchSegment(name string) string {
	return url.PathEscape(url.PathEscape(name))
}

// UnescapeBranchSegment reverses one level of EscapeBranchSegment, which is
// what a handler sees after the router decoded the first level.
func UnescapeBranchSegment(segment string) (string, error) {
	name, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("unescape branch segment: %w", err)
	}
	return name, nil
}

// Directory and file names for quire.
const (
	DataDirName    = "quire"       // Directory name for quire data
	ConfigFileName = "config.toml" // Config file name
	LogsDirName    = "logs"        // Log directory name
	ClonesDirName  = "clones"      // Clone registry directory name
)

// GlobalConfigDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, DataDirName)
}

// DataDir returns the per-user data directory.
// dataHome is typically XDG_DATA_HOME or ~/.local/share (resolved by caller).
func DataDir(dataHome string) string {
	return filepath.Join(dataHome, DataDirName)
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(dataDir string) string {
	return filepath.Join(dataDir, LogsDirName, "quire.log")
}

// TaskLogPath returns the path to a task log file.
func TaskLogPath(dataDir, branch string) string {
	return filepath.Join(dataDir, LogsDirName, fmt.Sprintf("task-%s.log", branch))
}

// ClonesDir returns the default root of the clone registry.
func ClonesDir(dataDir string) string {
	return filepath.Join(dataDir, ClonesDirName)
}

// RemoteRef returns the remote-tracking ref name of a branch on origin.
func RemoteRef(branch string) string {
	return "origin/" + branch
}
