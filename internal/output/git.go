package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitMessage is used for the commit of a generated project.
const CommitMessage = "Initial commit generated by AIRO"

// commitAll initialises (or reopens) a repository in dir and commits every
// file. It returns the commit hash, or the current head when nothing
// changed.
func commitAll(dir string) (string, error) {
	repo, err := git.PlainInit(dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(dir)
	}
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("staging files: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("reading status: %w", err)
	}
	if status.IsClean() {
		head, err := repo.Head()
		if err != nil {
			return "", fmt.Errorf("reading head: %w", err)
		}
		return head.Hash().String(), nil
	}
	hash, err := wt.Commit(CommitMessage, &git.CommitOptions{
		Author: &object.Signature{Name: "AIRO", Email: "airo@localhost", When: time.Now()},
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return hash.String(), nil
}
