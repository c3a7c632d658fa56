// Package clonepool keeps one clone of origin per (actor, task).
package clonepool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/infra/git"
)

const logCategory = "clones"

// key identifies a clone. owner is the escaped, lowercased actor email.
type key struct {
	owner string
	task  string
}

// entry is the lease state of one clone directory.
// lock holds a token while a request uses the clone; stale is guarded by
// Pool.mu; repo is only touched by the lease holder.
type entry struct {
	repo  *git.Client
	lock  chan struct{}
	dir   string
	stale bool
}

// Pool maps (actor, task) to a clone directory under root.
// Clones are created on first lease, discarded when their task completes,
// and discarded least recently used first beyond max.
type Pool struct {
	logger  domain.Logger
	cache   *lru.Cache
	entries map[key]*entry
	origin  string
	root    string
	mu      sync.Mutex
}

// New creates a pool rooted at root. Clones already on disk are registered,
// oldest first, so eviction order survives restarts.
func New(origin, root string, maxClones int, logger domain.Logger) (*Pool, error) {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	p := &Pool{
		origin:  origin,
		root:    root,
		logger:  logger,
		entries: make(map[key]*entry),
		cache:   lru.New(maxClones),
	}
	p.cache.OnEvicted = p.onEvicted

	existing, err := p.scan()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range existing {
		p.cache.Add(k, p.entryLocked(k))
	}
	return p, nil
}

// Acquire leases the clone of actor for task, cloning origin on first use.
// It blocks while another request, in this or another process, holds the
// same clone.
func (p *Pool) Acquire(ctx context.Context, actor domain.Actor, task string) (domain.Repository, func(), error) {
	if p.origin == "" {
		return nil, nil, domain.ErrNoOrigin
	}
	if err := actor.Validate(); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateBranchName(task); err != nil {
		return nil, nil, err
	}

	k := key{owner: ownerDir(actor.Email), task: task}
	p.mu.Lock()
	e := p.entryLocked(k)
	p.mu.Unlock()

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	flock, err := lockFile(ctx, e.dir)
	if err != nil {
		<-e.lock
		return nil, nil, fmt.Errorf("lock clone: %w", err)
	}

	p.mu.Lock()
	if e.stale {
		p.discard(e)
	}
	p.cache.Add(k, e)
	p.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.mu.Lock()
			if e.stale {
				p.discard(e)
			}
			p.mu.Unlock()
			flock.unlock()
			<-e.lock
		})
	}

	repo, err := p.materialize(ctx, e)
	if err != nil {
		release()
		return nil, nil, err
	}
	return repo, release, nil
}

// Evict discards every clone of task, including those of other processes
// found on disk. Clones currently leased are discarded on release.
func (p *Pool) Evict(task string) error {
	if err := domain.ValidateBranchName(task); err != nil {
		return err
	}
	keys, err := p.scan()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.entries {
		keys = append(keys, k)
	}
	seen := make(map[key]bool, len(keys))
	for _, k := range keys {
		if k.task != task || seen[k] {
			continue
		}
		seen[k] = true
		e := p.entryLocked(k)
		if _, ok := p.cache.Get(k); ok {
			p.cache.Remove(k)
			continue
		}
		p.onEvicted(k, e)
	}
	p.logger.Info(task, logCategory, "evicted clones")
	return nil
}

// Len returns the number of registered clones.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Len()
}

// entryLocked returns the entry for k, creating it. Entries are never removed
// so every request for one key contends on the same lock.
func (p *Pool) entryLocked(k key) *entry {
	e, ok := p.entries[k]
	if !ok {
		e = &entry{
			lock: make(chan struct{}, 1),
			dir:  filepath.Join(p.root, k.owner, k.task),
		}
		p.entries[k] = e
	}
	return e
}

// onEvicted runs with p.mu held, from lru.Cache.Add/Remove or Evict.
func (p *Pool) onEvicted(k lru.Key, value interface{}) {
	e, ok := value.(*entry)
	if !ok {
		return
	}
	select {
	case e.lock <- struct{}{}:
		flock, err := tryLockFile(e.dir)
		switch {
		case errors.Is(err, errLocked):
			ck, _ := k.(key)
			p.logger.Debug(ck.task, logCategory, "clone in use by another process, kept: "+e.dir)
		case err != nil:
			p.discard(e)
		default:
			p.discard(e)
			flock.unlock()
		}
		<-e.lock
	default:
		e.stale = true
		ck, _ := k.(key)
		p.logger.Debug(ck.task, logCategory, "clone in use, discarding on release: "+e.dir)
	}
}

// discard removes the clone directory. Callers hold p.mu and the lease.
func (p *Pool) discard(e *entry) {
	e.stale = false
	e.repo = nil
	if err := os.RemoveAll(e.dir); err != nil {
		p.logger.Warn("", logCategory, fmt.Sprintf("remove clone %s: %v", e.dir, err))
		return
	}
	p.logger.Debug(filepath.Base(e.dir), logCategory, "removed clone "+e.dir)
}

// materialize opens the clone on disk or clones origin. Callers hold the lease.
func (p *Pool) materialize(ctx context.Context, e *entry) (*git.Client, error) {
	now := time.Now()
	if e.repo != nil {
		_ = os.Chtimes(e.dir, now, now)
		return e.repo, nil
	}

	if _, err := os.Stat(filepath.Join(e.dir, ".git")); err == nil {
		repo, err := git.Open(e.dir)
		if err == nil {
			_ = os.Chtimes(e.dir, now, now)
			e.repo = repo
			return repo, nil
		}
		p.logger.Warn("", logCategory, fmt.Sprintf("discarding unreadable clone %s: %v", e.dir, err))
	}

	// Leftovers of an interrupted clone are never reused.
	if err := os.RemoveAll(e.dir); err != nil {
		return nil, fmt.Errorf("clear clone directory: %w", err)
	}
	repo, err := git.Clone(ctx, p.origin, e.dir)
	if err != nil {
		return nil, err
	}
	p.logger.Info(filepath.Base(e.dir), logCategory, "cloned origin into "+e.dir)
	e.repo = repo
	return repo, nil
}

// scan lists clones on disk, least recently used first.
func (p *Pool) scan() ([]key, error) {
	owners, err := os.ReadDir(p.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read clone root: %w", err)
	}

	type found struct {
		mod time.Time
		k   key
	}
	var clones []found
	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}
		tasks, err := os.ReadDir(filepath.Join(p.root, owner.Name()))
		if err != nil {
			return nil, fmt.Errorf("read clone owner: %w", err)
		}
		for _, task := range tasks {
			if !task.IsDir() || domain.ValidateBranchName(task.Name()) != nil {
				continue
			}
			info, err := task.Info()
			if err != nil {
				continue
			}
			clones = append(clones, found{k: key{owner: owner.Name(), task: task.Name()}, mod: info.ModTime()})
		}
	}

	sort.SliceStable(clones, func(i, j int) bool { return clones[i].mod.Before(clones[j].mod) })
	keys := make([]key, 0, len(clones))
	for _, c := range clones {
		keys = append(keys, c.k)
	}
	return keys, nil
}

// ownerDir maps an email to a directory name.
func ownerDir(email string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(email)))
}

// Ensure Pool implements domain.ClonePool.
var _ domain.ClonePool = (*Pool)(nil)
