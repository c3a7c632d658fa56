package git

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/runoshun/quire/internal/domain"
)

const remoteName = "origin"

// open opens the clone with go-git.
// The repository is reopened per call: the git CLI writes new packs between
// calls and go-git caches the pack index of an open repository.
func (c *Client) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(c.dir)
	if err != nil {
		return nil, fmt.Errorf("open clone %s: %w", c.dir, err)
	}
	return repo, nil
}

func resolveCommit(repo *gogit.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", rev, err)
	}
	return commit, nil
}

// CurrentBranch returns the checked out branch.
func (c *Client) CurrentBranch(_ context.Context) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("failed to get current branch: HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// ResolveRef returns the SHA rev points to.
func (c *Client) ResolveRef(_ context.Context, rev string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}
	return hash.String(), nil
}

// RemoteBranch returns the last fetched tip of branch on origin.
func (c *Client) RemoteBranch(_ context.Context, branch string) (string, bool, error) {
	repo, err := c.open()
	if err != nil {
		return "", false, err
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read remote branch %s: %w", branch, err)
	}
	return ref.Hash().String(), true, nil
}

// ListRemoteBranches returns all fetched origin branches sorted by name.
func (c *Client) ListRemoteBranches(_ context.Context) ([]domain.RemoteBranch, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	prefix := "refs/remotes/" + remoteName + "/"
	var branches []domain.RemoteBranch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if ref.Type() != plumbing.HashReference || !strings.HasPrefix(name, prefix) {
			return nil
		}
		short := strings.TrimPrefix(name, prefix)
		if short == "HEAD" {
			return nil
		}
		branches = append(branches, domain.RemoteBranch{Name: short, SHA: ref.Hash().String()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list remote branches: %w", err)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// LocalBranchExists checks if a local branch exists.
func (c *Client) LocalBranchExists(_ context.Context, branch string) (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check branch existence: %w", err)
	}
	return true, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (c *Client) IsAncestor(_ context.Context, ancestor, descendant string) (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}
	a, err := resolveCommit(repo, ancestor)
	if err != nil {
		return false, err
	}
	d, err := resolveCommit(repo, descendant)
	if err != nil {
		return false, err
	}
	if a.Hash == d.Hash {
		return true, nil
	}
	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, fmt.Errorf("check ancestry: %w", err)
	}
	return ok, nil
}

// TagMessage returns the message of an annotated tag.
// Lightweight tags exist but have an empty message.
func (c *Client) TagMessage(_ context.Context, name string) (string, bool, error) {
	repo, err := c.open()
	if err != nil {
		return "", false, err
	}
	ref, err := repo.Tag(name)
	if errors.Is(err, gogit.ErrTagNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read tag %s: %w", name, err)
	}
	tag, err := repo.TagObject(ref.Hash())
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return "", true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read tag object %s: %w", name, err)
	}
	return tag.Message, true, nil
}

// TagTarget returns the commit a tag points to, peeling annotated tags.
func (c *Client) TagTarget(_ context.Context, name string) (string, bool, error) {
	repo, err := c.open()
	if err != nil {
		return "", false, err
	}
	ref, err := repo.Tag(name)
	if errors.Is(err, gogit.ErrTagNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read tag %s: %w", name, err)
	}
	tag, err := repo.TagObject(ref.Hash())
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return ref.Hash().String(), true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read tag object %s: %w", name, err)
	}
	commit, err := tag.Commit()
	if err != nil {
		return "", false, fmt.Errorf("read tagged commit %s: %w", name, err)
	}
	return commit.Hash.String(), true, nil
}

// Log returns the commits reachable from tip but not from exclude, newest
// first. Children always come before their parents; commits that are not
// ordered by ancestry are ordered by committer time.
func (c *Client) Log(ctx context.Context, exclude, tip string) ([]domain.Commit, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	tipCommit, err := resolveCommit(repo, tip)
	if err != nil {
		return nil, err
	}

	excluded := make(map[plumbing.Hash]bool)
	if exclude != "" {
		excludeCommit, err := resolveCommit(repo, exclude)
		if err != nil {
			return nil, err
		}
		err = object.NewCommitPreorderIter(excludeCommit, nil, nil).ForEach(func(cm *object.Commit) error {
			excluded[cm.Hash] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", exclude, err)
		}
	}

	inRange := make(map[plumbing.Hash]*object.Commit)
	err = object.NewCommitPreorderIter(tipCommit, excluded, nil).ForEach(func(cm *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		inRange[cm.Hash] = cm
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", tip, err)
	}

	return topoOrder(inRange), nil
}

// topoOrder sorts commits newest first with every child before its parents.
func topoOrder(commits map[plumbing.Hash]*object.Commit) []domain.Commit {
	children := make(map[plumbing.Hash]int, len(commits))
	for _, cm := range commits {
		for _, p := range cm.ParentHashes {
			if _, ok := commits[p]; ok {
				children[p]++
			}
		}
	}

	var ready []*object.Commit
	for h, cm := range commits {
		if children[h] == 0 {
			ready = append(ready, cm)
		}
	}

	result := make([]domain.Commit, 0, len(commits))
	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if newer(ready[i], ready[best]) {
				best = i
			}
		}
		cm := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		result = append(result, toDomainCommit(cm))

		for _, p := range cm.ParentHashes {
			parent, ok := commits[p]
			if !ok {
				continue
			}
			children[p]--
			if children[p] == 0 {
				ready = append(ready, parent)
			}
		}
	}
	return result
}

func newer(a, b *object.Commit) bool {
	if !a.Committer.When.Equal(b.Committer.When) {
		return a.Committer.When.After(b.Committer.When)
	}
	return a.Hash.String() < b.Hash.String()
}

// MergeBase returns the best common ancestor of a and b, or "" if none.
func (c *Client) MergeBase(_ context.Context, a, b string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	ca, err := resolveCommit(repo, a)
	if err != nil {
		return "", err
	}
	cb, err := resolveCommit(repo, b)
	if err != nil {
		return "", err
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", fmt.Errorf("merge base of %s and %s: %w", a, b, err)
	}
	if len(bases) == 0 {
		return "", nil
	}
	return bases[0].Hash.String(), nil
}

// CommitInfo returns a single commit.
func (c *Client) CommitInfo(_ context.Context, rev string) (domain.Commit, error) {
	repo, err := c.open()
	if err != nil {
		return domain.Commit{}, err
	}
	cm, err := resolveCommit(repo, rev)
	if err != nil {
		return domain.Commit{}, err
	}
	return toDomainCommit(cm), nil
}

// ReadFileAt reads a file from a commit.
func (c *Client) ReadFileAt(_ context.Context, rev, filePath string) ([]byte, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	cm, err := resolveCommit(repo, rev)
	if err != nil {
		return nil, err
	}
	file, err := cm.File(filePath)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, fmt.Errorf("%s at %s: %w", filePath, rev, domain.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", filePath, rev, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", filePath, rev, err)
	}
	return []byte(contents), nil
}

// ListFiles lists files of a commit under dir, sorted.
func (c *Client) ListFiles(_ context.Context, rev, dir string) ([]string, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	cm, err := resolveCommit(repo, rev)
	if err != nil {
		return nil, err
	}
	tree, err := cm.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", rev, err)
	}
	if dir != "" {
		tree, err = tree.Tree(dir)
		if errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s at %s: %w", dir, rev, err)
		}
	}

	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, path.Join(dir, f.Name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", rev, err)
	}
	sort.Strings(files)
	return files, nil
}

// DiffCommits lists paths that differ from "from" to "to".
func (c *Client) DiffCommits(_ context.Context, from, to string) ([]domain.FileDiff, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	fromCommit, err := resolveCommit(repo, from)
	if err != nil {
		return nil, err
	}
	toCommit, err := resolveCommit(repo, to)
	if err != nil {
		return nil, err
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", from, err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", to, err)
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
	}

	diffs := make([]domain.FileDiff, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, fmt.Errorf("classify change: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			diffs = append(diffs, domain.FileDiff{Path: ch.To.Name, Status: domain.DiffAdded})
		case merkletrie.Delete:
			diffs = append(diffs, domain.FileDiff{Path: ch.From.Name, Status: domain.DiffRemoved})
		case merkletrie.Modify:
			diffs = append(diffs, domain.FileDiff{Path: ch.To.Name, Status: domain.DiffModified})
		}
	}
	return diffs, nil
}

func toDomainCommit(cm *object.Commit) domain.Commit {
	subject, body := domain.SplitMessage(cm.Message)
	parents := make([]string, 0, len(cm.ParentHashes))
	for _, p := range cm.ParentHashes {
		parents = append(parents, p.String())
	}
	return domain.Commit{
		SHA:     cm.Hash.String(),
		Author:  domain.Actor{Name: cm.Author.Name, Email: cm.Author.Email},
		When:    cm.Author.When,
		Subject: subject,
		Body:    body,
		Parents: parents,
	}
}
