// Package git provides the repository handle used by the workflow engine.
// Writes go through the git CLI; reads go through go-git.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/runoshun/quire/internal/domain"
)

// MergeDriver is the name of the local merge driver that keeps "ours" for the
// task metadata record.
const MergeDriver = "quire-ignore"

// systemActor is used for commands that may touch the reflog but record no
// authorship (checkout, reset, fetch).
var systemActor = domain.Actor{Name: "quire", Email: "quire@localhost"}

// Output markers used to classify git CLI failures.
var (
	rejectedMarkers = []string{
		"[rejected]",
		"non-fast-forward",
		"fetch first",
	}
	unreachableMarkers = []string{
		"Could not read from remote",
		"unable to access",
		"does not appear to be a git repository",
		"Could not resolve host",
		"Connection refused",
		"Connection timed out",
	}
	conflictMarkers = []string{
		"CONFLICT",
		"Automatic merge failed",
		"refusing to merge unrelated histories",
	}
	nothingToCommitMarkers = []string{
		"nothing to commit",
		"nothing added to commit",
		"no changes added to commit",
	}
)

// Client is a clone of origin.
type Client struct {
	dir string // Working tree root
}

// Clone clones origin into dir and prepares it for use by the engine.
func Clone(ctx context.Context, origin, dir string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o750); err != nil {
		return nil, fmt.Errorf("create clone parent: %w", err)
	}

	//nolint:gosec // origin and dir are passed as arguments, not shell
	cmd := exec.CommandContext(ctx, "git", "clone", "--origin", "origin", origin, dir)
	cmd.Env = commandEnv(systemActor)
	if out, err := cmd.CombinedOutput(); err != nil {
		if remoteErr := classifyRemote(string(out)); remoteErr != nil {
			return nil, fmt.Errorf("failed to clone %s: %w: %s", origin, remoteErr, strings.TrimSpace(string(out)))
		}
		return nil, fmt.Errorf("failed to clone %s: %w: %s", origin, err, strings.TrimSpace(string(out)))
	}

	c := &Client{dir: dir}
	if err := c.configure(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Open opens an existing clone.
func Open(dir string) (*Client, error) {
	if _, err := gogit.PlainOpen(dir); err != nil {
		return nil, fmt.Errorf("open clone %s: %w", dir, err)
	}
	return &Client{dir: dir}, nil
}

// configure registers the metadata merge driver and disables signing so
// commits never depend on the user's global git setup.
func (c *Client) configure(ctx context.Context) error {
	settings := [][2]string{
		{"merge." + MergeDriver + ".name", "keep the local task metadata record"},
		{"merge." + MergeDriver + ".driver", "true"},
		{"commit.gpgsign", "false"},
		{"tag.gpgsign", "false"},
	}
	for _, kv := range settings {
		if _, err := c.run(ctx, systemActor, "config", kv[0], kv[1]); err != nil {
			return err
		}
	}

	infoDir := filepath.Join(c.dir, ".git", "info")
	if err := os.MkdirAll(infoDir, 0o750); err != nil {
		return fmt.Errorf("create git info dir: %w", err)
	}
	attrs := fmt.Sprintf("%s merge=%s\n", domain.TaskMetadataFile, MergeDriver)
	if err := os.WriteFile(filepath.Join(infoDir, "attributes"), []byte(attrs), 0o600); err != nil {
		return fmt.Errorf("write git attributes: %w", err)
	}
	return nil
}

// Dir returns the working tree directory.
func (c *Client) Dir() string {
	return c.dir
}

// Fetch updates remote-tracking branches and tags from origin.
func (c *Client) Fetch(ctx context.Context) error {
	if _, err := c.run(ctx, systemActor, "fetch", "--prune", "--tags", "origin"); err != nil {
		return fmt.Errorf("failed to fetch origin: %w", err)
	}
	return nil
}

// CreateBranch creates or resets branch at startPoint and checks it out.
func (c *Client) CreateBranch(ctx context.Context, branch, startPoint string) error {
	if _, err := c.run(ctx, systemActor, "checkout", "-f", "--no-track", "-B", branch, startPoint); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// Checkout switches to branch, discarding uncommitted changes.
func (c *Client) Checkout(ctx context.Context, branch string) error {
	if _, err := c.run(ctx, systemActor, "checkout", "-f", branch, "--"); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", branch, err)
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
func (c *Client) DeleteBranch(ctx context.Context, branch string) error {
	if _, err := c.run(ctx, systemActor, "branch", "-D", branch); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branch, err)
	}
	return nil
}

// DeleteRemoteBranch deletes branch on origin. The refspec is fully
// qualified because a published task has a tag of the same name.
func (c *Client) DeleteRemoteBranch(ctx context.Context, branch string) error {
	out, err := c.run(ctx, systemActor, "push", "origin", ":refs/heads/"+branch)
	if err != nil {
		if strings.Contains(out, "remote ref does not exist") {
			return nil
		}
		return fmt.Errorf("failed to delete remote branch %s: %w", branch, err)
	}
	return nil
}

// Commit stages all changes and commits them as actor.
func (c *Client) Commit(ctx context.Context, actor domain.Actor, opts domain.CommitOptions) (string, error) {
	if _, err := c.run(ctx, actor, "add", "--all"); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}

	args := []string{"commit", "--no-verify", "--cleanup=whitespace", "-m", opts.Message}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if opts.Amend {
		args = append(args, "--amend")
	}
	if _, err := c.run(ctx, actor, args...); err != nil {
		if errors.Is(err, domain.ErrNothingToCommit) {
			return "", domain.ErrNothingToCommit
		}
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return c.ResolveRef(ctx, "HEAD")
}

// Merge merges ref into the current branch as actor.
// A failed merge is aborted so the working tree is left clean.
func (c *Client) Merge(ctx context.Context, actor domain.Actor, ref string, opts domain.MergeOptions) error {
	args := []string{"merge", "--no-edit"}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.FFOnly {
		args = append(args, "--ff-only")
	}
	if opts.Strategy != "" {
		args = append(args, "-s", opts.Strategy)
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, ref)

	if _, err := c.run(ctx, actor, args...); err != nil {
		if errors.Is(err, domain.ErrMergeConflict) {
			// Best effort: there is nothing to abort when git refused to start.
			_, _ = c.run(ctx, systemActor, "merge", "--abort")
			return fmt.Errorf("failed to merge %s: %w", ref, domain.ErrMergeConflict)
		}
		return fmt.Errorf("failed to merge %s: %w", ref, err)
	}
	return nil
}

// ResetHard resets the current branch to rev and removes untracked files.
func (c *Client) ResetHard(ctx context.Context, rev string) error {
	if _, err := c.run(ctx, systemActor, "reset", "--hard", rev); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", rev, err)
	}
	if _, err := c.run(ctx, systemActor, "clean", "-fd"); err != nil {
		return fmt.Errorf("failed to clean working tree: %w", err)
	}
	return nil
}

// Push pushes refspecs to origin.
func (c *Client) Push(ctx context.Context, refspecs ...string) error {
	args := append([]string{"push", "origin"}, refspecs...)
	if _, err := c.run(ctx, systemActor, args...); err != nil {
		return fmt.Errorf("failed to push %s: %w", strings.Join(refspecs, " "), err)
	}
	return nil
}

// Tag creates an annotated tag on target as actor.
func (c *Client) Tag(ctx context.Context, actor domain.Actor, name, target, message string) error {
	if _, err := c.run(ctx, actor, "tag", "--cleanup=whitespace", "-a", name, target, "-m", message); err != nil {
		return fmt.Errorf("failed to tag %s: %w", name, err)
	}
	return nil
}

// run executes git in the clone with actor as author and committer.
// The identity lives in the command environment only.
func (c *Client) run(ctx context.Context, actor domain.Actor, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	cmd.Env = commandEnv(actor)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	output := out.String()
	if err == nil {
		return output, nil
	}

	detail := strings.TrimSpace(output)
	switch {
	case containsAny(output, conflictMarkers):
		return output, fmt.Errorf("git %s: %w: %s", args[0], domain.ErrMergeConflict, detail)
	case containsAny(output, nothingToCommitMarkers):
		return output, fmt.Errorf("git %s: %w", args[0], domain.ErrNothingToCommit)
	}
	if remoteErr := classifyRemote(output); remoteErr != nil {
		return output, fmt.Errorf("git %s: %w: %s", args[0], remoteErr, detail)
	}
	return output, fmt.Errorf("git %s: %w: %s", args[0], err, detail)
}

// classifyRemote maps push and fetch failures to domain errors.
func classifyRemote(output string) error {
	switch {
	case containsAny(output, rejectedMarkers):
		return domain.ErrPushRejected
	case containsAny(output, unreachableMarkers):
		return domain.ErrRemoteUnavailable
	}
	return nil
}

func commandEnv(actor domain.Actor) []string {
	name := actor.DisplayName()
	return append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_AUTHOR_NAME="+name,
		"GIT_AUTHOR_EMAIL="+actor.Email,
		"GIT_COMMITTER_NAME="+name,
		"GIT_COMMITTER_EMAIL="+actor.Email,
	)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Ensure Client implements domain.Repository.
var _ domain.Repository = (*Client)(nil)
