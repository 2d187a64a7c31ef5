package git

import (
	stderrors "errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = stderrors.New("not a git repository")

// Revision identifies the checked out commit of a work tree.
type Revision struct {
	Commit string // full SHA
	Branch string // empty when HEAD is detached
	Dirty  bool   // uncommitted changes present
}

// Short returns the abbreviated commit, suffixed with "-dirty" when the work
// tree has uncommitted changes.
func (r Revision) Short() string {
	c := r.Commit
	if len(c) > 7 {
		c = c[:7]
	}
	if r.Dirty {
		return c + "-dirty"
	}
	return c
}

// HeadRevision inspects the repository containing dir. Parent directories are
// searched for the .git directory.
func HeadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	rev := Revision{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return rev, nil //nolint:nilerr // bare repositories have no work tree to be dirty
	}
	status, err := wt.Status()
	if err != nil {
		return Revision{}, fmt.Errorf("work tree status: %w", err)
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
