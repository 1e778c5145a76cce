// Package vcs reads lightweight git facts about a project directory for the
// status display: current branch, head commit, and whether the worktree is
// dirty.
package vcs

import (
	"errors"

	"github.com/go-git/go-git/v5"

	"github.com/atopile/dashsync/internal/foundation"
	ferrors "github.com/atopile/dashsync/internal/foundation/errors"
)

// Info is a snapshot of a project's git state.
type Info struct {
	Branch foundation.Option[string]
	Commit string
	Dirty  bool
}

// Probe reads the git state of the repository containing dir. A directory
// that is not inside a repository yields (None, nil) rather than an error.
func Probe(dir string) (foundation.Option[Info], error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return foundation.None[Info](), nil
		}
		return foundation.None[Info](), ferrors.StateError("open git repository").WithCause(err).Build()
	}

	head, err := repo.Head()
	if err != nil {
		// Freshly initialized repository without commits.
		return foundation.Some(Info{Branch: foundation.None[string]()}), nil
	}

	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = foundation.Some(head.Name().Short())
	}

	wt, err := repo.Worktree()
	if err == nil {
		if status, serr := wt.Status(); serr == nil {
			info.Dirty = !status.IsClean()
		}
	}

	return foundation.Some(info), nil
}
