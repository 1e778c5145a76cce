package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestProbeOutsideRepository(t *testing.T) {
	info, err := Probe(t.TempDir())
	require.NoError(t, err)
	require.True(t, info.IsNone())
}

func TestProbeEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	info, err := Probe(dir)
	require.NoError(t, err)
	require.True(t, info.IsSome())
	require.True(t, info.Unwrap().Branch.IsNone())
	require.Empty(t, info.Unwrap().Commit)
}

func TestProbeReportsHeadAndBranch(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	hash := commitFile(t, dir, "ato.yaml", "requires-atopile: ^0.12\n")

	info, err := Probe(dir)
	require.NoError(t, err)
	require.True(t, info.IsSome())
	got := info.Unwrap()
	require.Equal(t, hash, got.Commit)
	require.Equal(t, "master", got.Branch.UnwrapOr(""))
	require.False(t, got.Dirty)
}

func TestProbeDetectsDirtyWorktree(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, dir, "ato.yaml", "requires-atopile: ^0.12\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ato.yaml"), []byte("changed\n"), 0o644))

	info, err := Probe(dir)
	require.NoError(t, err)
	require.True(t, info.Unwrap().Dirty)
}

func TestProbeDetectsRepositoryFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	hash := commitFile(t, dir, "ato.yaml", "requires-atopile: ^0.12\n")

	sub := filepath.Join(dir, "elec", "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	info, err := Probe(sub)
	require.NoError(t, err)
	require.True(t, info.IsSome())
	require.Equal(t, hash, info.Unwrap().Commit)
}
