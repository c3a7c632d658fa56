package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/testutil"
)

var (
	alice = domain.Actor{Name: "Alice", Email: "alice@example.com"}
	bob   = domain.Actor{Name: "Bob", Email: "bob@example.com"}
)

// setupClone clones a fresh origin.
func setupClone(t *testing.T) (*testutil.Origin, *Client) {
	t.Helper()
	origin := testutil.NewOrigin(t)
	c, err := Clone(context.Background(), origin.Path, filepath.Join(t.TempDir(), "clone"))
	require.NoError(t, err)
	return origin, c
}

func commitFile(t *testing.T, c *Client, actor domain.Actor, path, content, message string) string {
	t.Helper()
	require.NoError(t, c.WriteFile(path, []byte(content)))
	sha, err := c.Commit(context.Background(), actor, domain.CommitOptions{Message: message})
	require.NoError(t, err)
	return sha
}

// =============================================================================
// Clone / Open Tests
// =============================================================================

func TestClone_ConfiguresMergeDriver(t *testing.T) {
	_, c := setupClone(t)

	attrs, err := os.ReadFile(filepath.Join(c.Dir(), ".git", "info", "attributes"))
	require.NoError(t, err)
	assert.Equal(t, "_task.yml merge=quire-ignore\n", string(attrs))

	out := testutil.RunGit(t, c.Dir(), "config", "merge.quire-ignore.driver")
	assert.Equal(t, "true", out)
}

func TestClone_MissingOrigin(t *testing.T) {
	_, err := Clone(context.Background(), filepath.Join(t.TempDir(), "missing.git"), filepath.Join(t.TempDir(), "clone"))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	_, c := setupClone(t)

	opened, err := Open(c.Dir())
	require.NoError(t, err)
	assert.Equal(t, c.Dir(), opened.Dir())

	_, err = Open(t.TempDir())
	assert.Error(t, err)
}

// =============================================================================
// Branch Tests
// =============================================================================

func TestClient_CreateBranchAndPush(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "abc1234", "origin/master"))
	branch, err := c.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc1234", branch)

	exists, err := c.LocalBranchExists(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, exists)

	sha := commitFile(t, c, alice, "note.md", "hi\n", "Add note")
	require.NoError(t, c.Push(ctx, "abc1234"))
	assert.Equal(t, sha, origin.Tip(t, "abc1234"))

	require.NoError(t, c.Fetch(ctx))
	remote, ok, err := c.RemoteBranch(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sha, remote)

	branches, err := c.ListRemoteBranches(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"abc1234", "master"}, names)
}

func TestClient_RemoteBranch_Missing(t *testing.T) {
	_, c := setupClone(t)

	_, ok, err := c.RemoteBranch(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_DeleteBranches(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "gone", "origin/master"))
	require.NoError(t, c.Push(ctx, "gone"))
	require.True(t, origin.HasBranch(t, "gone"))

	require.NoError(t, c.Checkout(ctx, "master"))
	require.NoError(t, c.DeleteBranch(ctx, "gone"))
	require.NoError(t, c.DeleteRemoteBranch(ctx, "gone"))
	assert.False(t, origin.HasBranch(t, "gone"))

	// Deleting again is not an error.
	require.NoError(t, c.DeleteRemoteBranch(ctx, "gone"))

	exists, err := c.LocalBranchExists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_DeleteRemoteBranch_BesideTagOfSameName(t *testing.T) {
	// Setup: a published task has a branch and a tag named alike
	ctx := context.Background()
	origin, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "abc1234", "origin/master"))
	commitFile(t, c, alice, "a.md", "a\n", "Edit")
	require.NoError(t, c.Push(ctx, "refs/heads/abc1234:refs/heads/abc1234"))
	require.NoError(t, c.Tag(ctx, alice, "abc1234", "HEAD", "task_description: Fix\n"))
	require.NoError(t, c.Push(ctx, "refs/tags/abc1234:refs/tags/abc1234"))

	// Execute
	err := c.DeleteRemoteBranch(ctx, "abc1234")

	// Assert
	require.NoError(t, err)
	assert.False(t, origin.HasBranch(t, "abc1234"))
	assert.True(t, origin.HasTag(t, "abc1234"))
}

// =============================================================================
// Commit Tests
// =============================================================================

func TestClient_Commit_UsesActor(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	sha := commitFile(t, c, alice, "a.md", "a\n", "Subject\n\n# not a comment\nbody")

	info, err := c.CommitInfo(ctx, sha)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", info.Author.Email)
	assert.Equal(t, "Alice", info.Author.Name)
	assert.Equal(t, "Subject", info.Subject)
	assert.Equal(t, "# not a comment\nbody", info.Body)

	sha = commitFile(t, c, bob, "b.md", "b\n", "By Bob")
	info, err = c.CommitInfo(ctx, sha)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", info.Author.Email)
}

func TestClient_Commit_NothingToCommit(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	_, err := c.Commit(ctx, alice, domain.CommitOptions{Message: "empty"})
	assert.ErrorIs(t, err, domain.ErrNothingToCommit)

	sha, err := c.Commit(ctx, alice, domain.CommitOptions{Message: "marker", AllowEmpty: true})
	require.NoError(t, err)
	assert.Len(t, sha, 40)
}

func TestClient_Commit_Amend(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	require.NoError(t, c.WriteFile("b.md", []byte("b\n")))
	first := commitFile(t, c, alice, "a.md", "a\n", "First")
	require.NoError(t, c.RemovePath("a.md"))
	second, err := c.Commit(ctx, alice, domain.CommitOptions{Message: "Amended", Amend: true})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	info, err := c.CommitInfo(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "Amended", info.Subject)

	_, err = c.ReadFileAt(ctx, second, "a.md")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	data, err := c.ReadFileAt(ctx, second, "b.md")
	require.NoError(t, err)
	assert.Equal(t, "b\n", string(data))
}

func TestClient_Commit_AmendToEmpty(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	commitFile(t, c, alice, "a.md", "a\n", "First")
	require.NoError(t, c.RemovePath("a.md"))

	_, err := c.Commit(ctx, alice, domain.CommitOptions{Message: "Amended", Amend: true, AllowEmpty: true})
	require.NoError(t, err)

	_, err = c.ReadFileAt(ctx, "HEAD", "a.md")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

// =============================================================================
// Merge Tests
// =============================================================================

func TestClient_Merge_Conflict(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	origin.Push(t, "bob@example.com", "master", "Remote edit", map[string]string{"README.md": "remote\n"})
	local := commitFile(t, c, alice, "README.md", "local\n", "Local edit")
	require.NoError(t, c.Fetch(ctx))

	err := c.Merge(ctx, alice, "origin/master", domain.MergeOptions{NoFF: true})
	assert.ErrorIs(t, err, domain.ErrMergeConflict)

	// The merge was aborted: tip and working tree are untouched.
	head, err := c.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, local, head)
	data, err := c.ReadFile("README.md")
	require.NoError(t, err)
	assert.Equal(t, "local\n", string(data))
}

func TestClient_Merge_MetadataRecordNeverConflicts(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "task1", "origin/master"))
	commitFile(t, c, alice, domain.TaskMetadataFile, "task_description: base\n", "Task started.")
	require.NoError(t, c.Push(ctx, "task1"))

	origin.Push(t, "bob@example.com", "task1", "Task metadata updated.", map[string]string{domain.TaskMetadataFile: "task_description: remote\n"})
	commitFile(t, c, alice, domain.TaskMetadataFile, "task_description: local\n", "Task metadata updated.")
	require.NoError(t, c.Fetch(ctx))

	require.NoError(t, c.Merge(ctx, alice, "origin/task1", domain.MergeOptions{NoFF: true, Message: "Merged work from origin/task1"}))
	data, err := c.ReadFile(domain.TaskMetadataFile)
	require.NoError(t, err)
	assert.Equal(t, "task_description: local\n", string(data))
}

func TestClient_Merge_OursStrategy(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "task1", "origin/master"))
	commitFile(t, c, alice, "README.md", "task\n", "Task edit")
	origin.Push(t, "bob@example.com", "master", "Remote edit", map[string]string{"README.md": "remote\n"})
	require.NoError(t, c.Fetch(ctx))

	require.NoError(t, c.Merge(ctx, alice, "origin/master", domain.MergeOptions{Strategy: "ours", Message: "clobber"}))
	data, err := c.ReadFile("README.md")
	require.NoError(t, err)
	assert.Equal(t, "task\n", string(data))

	ok, err := c.IsAncestor(ctx, "origin/master", "HEAD")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_ResetHard(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	base, err := c.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	commitFile(t, c, alice, "a.md", "a\n", "Add a")
	require.NoError(t, c.WriteFile("untracked/file.md", []byte("x")))

	require.NoError(t, c.ResetHard(ctx, base))
	head, err := c.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, base, head)
	_, err = c.ReadFile("untracked/file.md")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

// =============================================================================
// Remote Error Tests
// =============================================================================

func TestClient_Push_Rejected(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	origin.Push(t, "bob@example.com", "master", "Remote edit", map[string]string{"remote.md": "r\n"})
	commitFile(t, c, alice, "local.md", "l\n", "Local edit")

	err := c.Push(ctx, "master")
	assert.ErrorIs(t, err, domain.ErrPushRejected)
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	origin, c := setupClone(t)
	require.NoError(t, os.RemoveAll(origin.Path))

	err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

// =============================================================================
// Read Tests
// =============================================================================

func TestClient_Log_Range(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "task1", "origin/master"))
	commitFile(t, c, alice, "1.md", "1", "one")
	commitFile(t, c, alice, "2.md", "2", "two")
	commitFile(t, c, bob, "3.md", "3", "three")

	commits, err := c.Log(ctx, "origin/master", "HEAD")
	require.NoError(t, err)
	require.Len(t, commits, 3)
	// Commits made within the same second still come out newest first.
	assert.Equal(t, "three", commits[0].Subject)
	assert.Equal(t, "two", commits[1].Subject)
	assert.Equal(t, "one", commits[2].Subject)
	assert.Equal(t, "bob@example.com", commits[0].Author.Email)

	all, err := c.Log(ctx, "", "HEAD")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Initial commit", all[3].Subject)
}

func TestClient_Log_ExcludesMergedUpstream(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	require.NoError(t, c.CreateBranch(ctx, "task1", "origin/master"))
	commitFile(t, c, alice, "mine.md", "m", "mine")
	origin.Push(t, "bob@example.com", "master", "upstream", map[string]string{"theirs.md": "t"})
	require.NoError(t, c.Fetch(ctx))
	require.NoError(t, c.Merge(ctx, alice, "origin/master", domain.MergeOptions{NoFF: true, Message: "Merged work from origin/master"}))

	commits, err := c.Log(ctx, "origin/master", "HEAD")
	require.NoError(t, err)
	subjects := make([]string, 0, len(commits))
	for _, cm := range commits {
		subjects = append(subjects, cm.Subject)
	}
	assert.Equal(t, []string{"Merged work from origin/master", "mine"}, subjects)
	assert.True(t, commits[0].IsMerge())
}

func TestClient_MergeBase(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	base, err := c.ResolveRef(ctx, "origin/master")
	require.NoError(t, err)
	require.NoError(t, c.CreateBranch(ctx, "task1", "origin/master"))
	commitFile(t, c, alice, "1.md", "1", "one")

	got, err := c.MergeBase(ctx, "origin/master", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, base, got)

	testutil.RunGit(t, c.Dir(), "checkout", "--orphan", "orphan")
	commitFile(t, c, alice, "o.md", "o", "orphan root")
	got, err = c.MergeBase(ctx, "origin/master", "HEAD")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_ReadFileAtAndListFiles(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	data, err := c.ReadFileAt(ctx, "origin/master", "about/index.md")
	require.NoError(t, err)
	assert.Equal(t, testutil.SeedFiles["about/index.md"], string(data))

	_, err = c.ReadFileAt(ctx, "origin/master", "missing.md")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	files, err := c.ListFiles(ctx, "origin/master", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "about/index.md", "index.md"}, files)

	files, err = c.ListFiles(ctx, "origin/master", "about")
	require.NoError(t, err)
	assert.Equal(t, []string{"about/index.md"}, files)

	files, err = c.ListFiles(ctx, "origin/master", "nowhere")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestClient_DiffCommits(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	from, err := c.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	require.NoError(t, c.WriteFile("new.md", []byte("n")))
	require.NoError(t, c.WriteFile("README.md", []byte("changed")))
	require.NoError(t, c.RemovePath("about"))
	to, err := c.Commit(ctx, alice, domain.CommitOptions{Message: "changes"})
	require.NoError(t, err)

	diffs, err := c.DiffCommits(ctx, from, to)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.FileDiff{
		{Path: "new.md", Status: domain.DiffAdded},
		{Path: "README.md", Status: domain.DiffModified},
		{Path: "about/index.md", Status: domain.DiffRemoved},
	}, diffs)
}

func TestClient_Tags(t *testing.T) {
	ctx := context.Background()
	origin, c := setupClone(t)

	_, ok, err := c.TagMessage(ctx, "abc1234")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Tag(ctx, alice, "abc1234", "HEAD", "task_description: Fix\n"))
	require.NoError(t, c.Push(ctx, "refs/tags/abc1234"))
	assert.True(t, origin.HasTag(t, "abc1234"))

	msg, ok, err := c.TagMessage(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "task_description: Fix\n", msg)
}

func TestClient_TagTarget(t *testing.T) {
	ctx := context.Background()
	_, c := setupClone(t)

	_, ok, err := c.TagTarget(ctx, "abc1234")
	require.NoError(t, err)
	assert.False(t, ok)

	head, err := c.ResolveRef(ctx, "HEAD")
	require.NoError(t, err)
	require.NoError(t, c.Tag(ctx, alice, "abc1234", head, "annotated\n"))
	testutil.RunGit(t, c.Dir(), "tag", "light", head)

	for _, name := range []string{"abc1234", "light"} {
		target, ok, err := c.TagTarget(ctx, name)
		require.NoError(t, err, name)
		assert.True(t, ok, name)
		assert.Equal(t, head, target, name)
	}
}

// =============================================================================
// Working Tree Tests
// =============================================================================

func TestClient_MovePath(t *testing.T) {
	_, c := setupClone(t)

	require.NoError(t, c.MovePath("about", "company/about"))
	data, err := c.ReadFile("company/about/index.md")
	require.NoError(t, err)
	assert.Equal(t, testutil.SeedFiles["about/index.md"], string(data))

	assert.ErrorIs(t, c.MovePath("about", "x"), domain.ErrFileNotFound)
	assert.ErrorIs(t, c.MovePath("README.md", "index.md"), domain.ErrEntryExists)
	assert.ErrorIs(t, c.RemovePath("about"), domain.ErrFileNotFound)
}
