// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gitutil provides optional pre-edit checkpoint commits and undo
// of the last checkpoint. Edits themselves never require git; this only
// runs when the caller opts in.
package gitutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName    = "hashedit"
	authorEmail   = "noreply@hashedit"
	checkpointTag = "hashedit: checkpoint before edit"
)

// ErrNotCheckpoint is returned when undo targets a commit hashedit did
// not create.
var ErrNotCheckpoint = errors.New("HEAD is not a hashedit checkpoint")

// ErrNoGit is returned when the directory is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// Repo wraps a go-git repository for checkpoint and undo.
type Repo struct {
	repo *gogit.Repository
}

// Open opens the repository containing dir, walking up to find the .git
// directory. Returns ErrNoGit when there is none.
func Open(dir string) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r}, nil
}

// IsDirty reports whether the working tree has staged or unstaged
// changes.
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}
	return !status.IsClean(), nil
}

// Checkpoint commits all uncommitted changes so the upcoming edit can be
// undone without losing the caller's own work. A clean tree is a no-op.
func (r *Repo) Checkpoint() error {
	dirty, err := r.IsDirty()
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if _, err := wt.Add("."); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	_, err = wt.Commit(checkpointTag, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}
	return nil
}

// IsCheckpoint reports whether HEAD is a hashedit checkpoint commit.
func (r *Repo) IsCheckpoint() (bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		return false, fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return false, fmt.Errorf("getting commit: %w", err)
	}
	return strings.HasPrefix(commit.Message, checkpointTag), nil
}

// Undo soft-resets to the parent of the last checkpoint commit, keeping
// the checkpointed content staged in the working tree. Refuses to touch
// commits hashedit did not create.
func (r *Repo) Undo() error {
	ok, err := r.IsCheckpoint()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCheckpoint
	}

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("getting commit: %w", err)
	}
	if commit.NumParents() == 0 {
		return fmt.Errorf("cannot undo: checkpoint is the initial commit")
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("getting parent commit: %w", err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: parent.Hash, Mode: gogit.SoftReset}); err != nil {
		return fmt.Errorf("resetting to parent: %w", err)
	}
	return nil
}
