package domain

import (
	"context"
	"time"
)

// CommitOptions configures Repository.Commit.
type CommitOptions struct {
	Message    string // Full message (subject, blank line, body)
	AllowEmpty bool   // Record a commit even if the tree did not change
	Amend      bool   // Replace the current tip, keeping its parents
}

// MergeOptions configures Repository.Merge.
type MergeOptions struct {
	Message  string // Merge commit message
	Strategy string // Merge strategy, e.g. "ours" (empty = default)
	NoFF     bool   // Always create a merge commit
	FFOnly   bool   // Refuse anything but a fast-forward
}

// RemoteBranch is a branch as last fetched from origin.
type RemoteBranch struct {
	Name string
	SHA  string
}

// Repository is one local clone with a fetch/push relationship to origin.
// A Repository must only be used by one request at a time; ClonePool hands
// out exclusive leases.
type Repository interface {
	Differ

	// Dir returns the working tree directory.
	Dir() string

	// CurrentBranch returns the checked out branch.
	CurrentBranch(ctx context.Context) (string, error)

	// ResolveRef returns the commit SHA a ref or revision points to.
	ResolveRef(ctx context.Context, ref string) (string, error)

	// Fetch updates all remote-tracking branches and tags from origin.
	// Returns ErrRemoteUnavailable if origin cannot be reached.
	Fetch(ctx context.Context) error

	// RemoteBranch returns the last fetched tip of branch on origin.
	RemoteBranch(ctx context.Context, branch string) (sha string, ok bool, err error)

	// ListRemoteBranches returns all branches last fetched from origin.
	ListRemoteBranches(ctx context.Context) ([]RemoteBranch, error)

	// LocalBranchExists checks if a local branch exists.
	LocalBranchExists(ctx context.Context, branch string) (bool, error)

	// CreateBranch creates (or resets) a local branch at startPoint and checks it out.
	CreateBranch(ctx context.Context, branch, startPoint string) error

	// Checkout switches the working tree to branch, discarding uncommitted changes.
	Checkout(ctx context.Context, branch string) error

	// DeleteBranch force-deletes a local branch.
	DeleteBranch(ctx context.Context, branch string) error

	// DeleteRemoteBranch deletes a branch on origin. Deleting a missing branch is not an error.
	DeleteRemoteBranch(ctx context.Context, branch string) error

	// Commit stages every change in the working tree and commits it as actor.
	// Returns ErrNothingToCommit if nothing changed and AllowEmpty is false.
	Commit(ctx context.Context, actor Actor, opts CommitOptions) (string, error)

	// Merge merges ref into the current branch as actor.
	// On conflict the merge is aborted and ErrMergeConflict is returned.
	Merge(ctx context.Context, actor Actor, ref string, opts MergeOptions) error

	// ResetHard moves the current branch to rev and cleans the working tree.
	ResetHard(ctx context.Context, rev string) error

	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)

	// Push pushes refspecs to origin.
	// Returns ErrPushRejected for non-fast-forward rejections and
	// ErrRemoteUnavailable if origin cannot be reached.
	Push(ctx context.Context, refspecs ...string) error

	// Tag creates an annotated tag on target as actor.
	Tag(ctx context.Context, actor Actor, name, target, message string) error

	// TagMessage returns the message of a tag; ok is false if it does not exist.
	TagMessage(ctx context.Context, name string) (message string, ok bool, err error)

	// TagTarget returns the commit a tag points to; ok is false if it does not exist.
	TagTarget(ctx context.Context, name string) (commit string, ok bool, err error)

	// Log returns commits reachable from tip but not from exclude, newest first.
	// An empty exclude returns the whole history of tip.
	Log(ctx context.Context, exclude, tip string) ([]Commit, error)

	// MergeBase returns the best common ancestor, or "" for unrelated histories.
	MergeBase(ctx context.Context, a, b string) (string, error)

	// CommitInfo returns a single commit.
	CommitInfo(ctx context.Context, rev string) (Commit, error)

	// ReadFileAt reads a file from a commit. Returns ErrFileNotFound if absent.
	ReadFileAt(ctx context.Context, rev, path string) ([]byte, error)

	// ListFiles lists the files of a commit under dir ("" = whole tree).
	ListFiles(ctx context.Context, rev, dir string) ([]string, error)

	// ReadFile reads a file from the working tree. Returns ErrFileNotFound if absent.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes a file in the working tree, creating parent directories.
	WriteFile(path string, data []byte) error

	// RemovePath removes a file or directory from the working tree.
	RemovePath(path string) error

	// MovePath renames a file or directory in the working tree.
	MovePath(from, to string) error
}

// ClonePool is the registry of clones, one per (actor, task).
type ClonePool interface {
	// Acquire leases the clone for actor and task, cloning origin if needed.
	// The returned release function must be called when the request is done.
	Acquire(ctx context.Context, actor Actor, task string) (Repository, func(), error)

	// Evict discards every clone of task. Clones in use are removed on release.
	Evict(task string) error
}

// Logger writes operational logs. task may be empty for global entries.
type Logger interface {
	Info(task, category, msg string)
	Debug(task, category, msg string)
	Warn(task, category, msg string)
	Error(task, category, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

// Info implements Logger.
func (NopLogger) Info(_, _, _ string) {}

// Debug implements Logger.
func (NopLogger) Debug(_, _, _ string) {}

// Warn implements Logger.
func (NopLogger) Warn(_, _, _ string) {}

// Error implements Logger.
func (NopLogger) Error(_, _, _ string) {}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (default + global + local).
	Load() (*Config, error)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ConfigInfo describes one config file.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigManager inspects and creates config files.
type ConfigManager interface {
	GetGlobalConfigInfo() ConfigInfo
	GetLocalConfigInfo() ConfigInfo
	InitGlobalConfig(cfg *Config) error
	InitLocalConfig(cfg *Config) error
}
