package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DiffStatus is how a path differs between two commits.
type DiffStatus string

// Diff statuses, relative to the "from" commit.
const (
	DiffAdded    DiffStatus = "added"
	DiffRemoved  DiffStatus = "removed"
	DiffModified DiffStatus = "modified"
)

// FileDiff is one changed path between two commits.
type FileDiff struct {
	Path   string
	Status DiffStatus
}

// Differ diffs two commits.
type Differ interface {
	// DiffCommits lists paths that differ from "from" to "to".
	DiffCommits(ctx context.Context, from, to string) ([]FileDiff, error)
}

// ConflictFiles classifies the paths of a merge conflict.
type ConflictFiles struct {
	Added   []string // Only in the local commit
	Removed []string // Only in the remote commit
	Changed []string // In both, with different content
}

// IsEmpty reports whether no user content differs.
func (f ConflictFiles) IsEmpty() bool {
	return len(f.Added) == 0 && len(f.Removed) == 0 && len(f.Changed) == 0
}

// ClassifyConflictFiles partitions a remote→local diff.
// The task metadata record is never reported; it is expected to differ.
func ClassifyConflictFiles(diffs []FileDiff) ConflictFiles {
	var files ConflictFiles
	for _, d := range diffs {
		if d.Path == TaskMetadataFile {
			continue
		}
		switch d.Status {
		case DiffAdded:
			files.Added = append(files.Added, d.Path)
		case DiffRemoved:
			files.Removed = append(files.Removed, d.Path)
		case DiffModified:
			files.Changed = append(files.Changed, d.Path)
		}
	}
	sort.Strings(files.Added)
	sort.Strings(files.Removed)
	sort.Strings(files.Changed)
	return files
}

// MergeConflict is returned when an automatic merge fails.
// It carries the two divergent tips so a person can decide how to resolve it:
// merge again later, clobber, or abandon.
type MergeConflict struct {
	differ Differ
	err    error
	Remote Commit // Tip fetched from origin
	Local  Commit // Local tip the merge was attempted on
	files  ConflictFiles
	once   sync.Once
}

// NewMergeConflict creates a MergeConflict whose Files are computed with differ.
func NewMergeConflict(remote, local Commit, differ Differ) *MergeConflict {
	return &MergeConflict{Remote: remote, Local: local, differ: differ}
}

// Error implements error.
func (e *MergeConflict) Error() string {
	return fmt.Sprintf("merge conflict between %s (%s) and %s (%s)",
		e.Local.ShortSHA(), e.Local.Author.Email, e.Remote.ShortSHA(), e.Remote.Author.Email)
}

// Is makes errors.Is(err, ErrMergeConflict) match.
func (e *MergeConflict) Is(target error) bool {
	return target == ErrMergeConflict
}

// Files diffs Remote against Local on first use and classifies the result.
func (e *MergeConflict) Files(ctx context.Context) (ConflictFiles, error) {
	e.once.Do(func() {
		if e.differ == nil {
			return
		}
		diffs, err := e.differ.DiffCommits(ctx, e.Remote.SHA, e.Local.SHA)
		if err != nil {
			e.err = fmt.Errorf("diff conflicting commits: %w", err)
			return
		}
		e.files = ClassifyConflictFiles(diffs)
	})
	return e.files, e.err
}
