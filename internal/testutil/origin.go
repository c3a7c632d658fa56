package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SeedFiles is the content of the first commit on master in every Origin.
var SeedFiles = map[string]string{
	"README.md":      "# Content\n",
	"index.md":       "---\nlayout: category\ntitle: Home\n---\n\nWelcome.\n",
	"about/index.md": "---\nlayout: article\ntitle: About\n---\n\nAbout us.\n",
}

// SeedAuthor is the author of the seed commit.
const SeedAuthor = "seed@example.com"

// Origin is a bare repository standing in for the shared origin.
type Origin struct {
	Path string
}

// NewOrigin creates a bare origin whose master holds SeedFiles.
func NewOrigin(t *testing.T) *Origin {
	t.Helper()

	seed := t.TempDir()
	RunGit(t, seed, "init", "--initial-branch=master")
	writeFiles(t, seed, SeedFiles)
	RunGit(t, seed, "add", ".")
	RunGit(t, seed, "commit", "-m", "Initial commit")

	path := filepath.Join(t.TempDir(), "origin.git")
	RunGit(t, seed, "clone", "--bare", seed, path)
	return &Origin{Path: path}
}

// RunGit executes a git command as the seed author and fails the test if it errors.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := gitCommand(dir, SeedAuthor, args...).CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
	return strings.TrimSpace(string(out))
}

func gitCommand(dir, email string, args ...string) *exec.Cmd {
	full := append([]string{"-c", "commit.gpgsign=false", "-c", "tag.gpgsign=false"}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	name := strings.SplitN(email, "@", 2)[0]
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_AUTHOR_NAME="+name,
		"GIT_AUTHOR_EMAIL="+email,
		"GIT_COMMITTER_NAME="+name,
		"GIT_COMMITTER_EMAIL="+email,
	)
	return cmd
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

// Git runs a git command against the bare origin.
func (o *Origin) Git(t *testing.T, args ...string) string {
	t.Helper()
	return RunGit(t, o.Path, args...)
}

// HasBranch reports whether origin has branch.
func (o *Origin) HasBranch(t *testing.T, branch string) bool {
	t.Helper()
	err := gitCommand(o.Path, SeedAuthor, "show-ref", "--verify", "--quiet", "refs/heads/"+branch).Run()
	return err == nil
}

// HasTag reports whether origin has tag.
func (o *Origin) HasTag(t *testing.T, tag string) bool {
	t.Helper()
	err := gitCommand(o.Path, SeedAuthor, "show-ref", "--verify", "--quiet", "refs/tags/"+tag).Run()
	return err == nil
}

// ReadFile returns a file at ref on origin; ok is false if it does not exist.
func (o *Origin) ReadFile(t *testing.T, ref, path string) (string, bool) {
	t.Helper()
	out, err := gitCommand(o.Path, SeedAuthor, "show", ref+":"+path).Output()
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Files lists the files at ref on origin, sorted.
func (o *Origin) Files(t *testing.T, ref string) []string {
	t.Helper()
	out := o.Git(t, "ls-tree", "-r", "--name-only", ref)
	files := strings.Split(out, "\n")
	sort.Strings(files)
	return files
}

// Subjects returns the commit subjects of ref, newest first.
func (o *Origin) Subjects(t *testing.T, ref string) []string {
	t.Helper()
	return strings.Split(o.Git(t, "log", "--format=%s", ref), "\n")
}

// Tip returns the SHA of ref on origin.
func (o *Origin) Tip(t *testing.T, ref string) string {
	t.Helper()
	return o.Git(t, "rev-parse", ref)
}

// Push commits files on branch of origin as email, in a scratch clone.
// It simulates a concurrent writer. Empty content deletes the file.
func (o *Origin) Push(t *testing.T, email, branch, message string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "scratch")
	RunGit(t, filepath.Dir(dir), "clone", "--branch", branch, o.Path, dir)
	for name, content := range files {
		if content == "" {
			require.NoError(t, os.RemoveAll(filepath.Join(dir, filepath.FromSlash(name))))
			continue
		}
		writeFiles(t, dir, map[string]string{name: content})
	}
	out, err := gitCommand(dir, email, "add", "--all").CombinedOutput()
	require.NoError(t, err, "git add failed: %s", out)
	out, err = gitCommand(dir, email, "commit", "-m", message).CombinedOutput()
	require.NoError(t, err, "git commit failed: %s", out)
	RunGit(t, dir, "push", "origin", branch)
	return RunGit(t, dir, "rev-parse", "HEAD")
}
