package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestIsGitURL(t *testing.T) {
	testCases := map[string]bool{
		"https://github.com/u/notes": true,
		"git@github.com:u/notes.git": true,
		"/home/me/notes.git":         true,
		"/home/me/notes":             false,
		"./notes":                    false,
	}
	for path, want := range testCases {
		if got := IsGitURL(path); got != want {
			t.Errorf("IsGitURL(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url  string
		want string
	}{
		{"https://github.com/user/notes.git", filepath.Join("repos", "github.com", "user", "notes")},
		{"http://example.com/a/b", filepath.Join("repos", "example.com", "a", "b")},
		{"git@github.com:user/notes.git", filepath.Join("repos", "github.com", "user", "notes")},
	}
	for _, tc := range testCases {
		got, err := LocalPath("repos", tc.url)
		if err != nil {
			t.Errorf("LocalPath(%q) returned error: %v", tc.url, err)
			continue
		}
		if got != tc.want {
			t.Errorf("LocalPath(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}

	if _, err := LocalPath("repos", "not a url"); err == nil {
		t.Error("Expected an error for an unparseable URL")
	}
}

func TestSyncClonesAndPullsLocalRepo(t *testing.T) {
	origin := t.TempDir()
	repo, err := git.PlainInit(origin, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	if err := os.WriteFile(filepath.Join(origin, "notes.md"), []byte("Q: Ping?\nA: Pong\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("notes.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Commit("add notes", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	checkout := filepath.Join(t.TempDir(), "checkout")
	if err := Sync(context.Background(), origin, checkout, nil); err != nil {
		t.Fatalf("clone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(checkout, "notes.md")); err != nil {
		t.Fatalf("Expected cloned notes.md: %v", err)
	}

	// Second run pulls and finds nothing new.
	if err := Sync(context.Background(), origin, checkout, nil); err != nil {
		t.Fatalf("pull: %v", err)
	}
}
