// Package gitmeta resolves build provenance from the site's git repository,
// when one exists. Everything here is best-effort: a site outside version
// control simply gets empty metadata.
package gitmeta

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Revision describes the repository state a generation was built from.
type Revision struct {
	// Commit is the full HEAD commit hash.
	Commit string
	// Short is the abbreviated commit hash used in rendered metadata.
	Short string
	// Dirty reports uncommitted changes in the worktree.
	Dirty bool
}

// Resolve walks upward from dir to find the enclosing repository and reads
// its HEAD. A missing repository is not an error; it returns a zero Revision.
func Resolve(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return Revision{}, nil
		}
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		// Fresh repository without commits.
		return Revision{}, nil
	}

	rev := Revision{Commit: head.Hash().String()}
	if len(rev.Commit) >= 8 {
		rev.Short = rev.Commit[:8]
	} else {
		rev.Short = rev.Commit
	}

	wt, err := repo.Worktree()
	if err != nil {
		return rev, nil
	}
	status, err := wt.Status()
	if err != nil {
		return rev, nil
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
