package domain

import "errors"

// Domain errors.
var (
	ErrStaleWrite        = errors.New("task has changed since it was loaded (reload and try again)")
	ErrMergeConflict     = errors.New("merge conflict exists")
	ErrBranchCreation    = errors.New("failed to create task branch")
	ErrBranchNotFound    = errors.New("task branch not found")
	ErrRemoteUnavailable = errors.New("origin is unreachable")
	ErrPushRejected      = errors.New("push rejected by origin")
	ErrNothingToCommit   = errors.New("nothing to commit")
	ErrFileNotFound      = errors.New("file not found")
	ErrNotAuthorized     = errors.New("not authorized for this review step")
	ErrInvalidTransition = errors.New("invalid review state transition")
	ErrInvalidBranchName = errors.New("invalid task branch name")
	ErrInvalidStrategy   = errors.New("invalid completion strategy")
	ErrInvalidPath       = errors.New("invalid content path")
	ErrInvalidDocument   = errors.New("invalid content document")
	ErrInvalidKind       = errors.New("invalid entry kind")
	ErrEntryExists       = errors.New("entry already exists")
	ErrNoActor           = errors.New("actor email is required")
	ErrEmptyDescription  = errors.New("task description cannot be empty")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrEmptyMessage      = errors.New("message cannot be empty")
	ErrNoFieldsToUpdate  = errors.New("no fields to update")
	ErrNoOrigin          = errors.New("origin is not configured (set repo.origin in config.toml)")
	ErrConfigExists      = errors.New("config file already exists")
	ErrConfigNil         = errors.New("config is nil")
)
