package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempJournal(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempJournal(t)
	content := []byte("## Notes\nWorld\n")
	if err := s.Write("quest.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("quest.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestAbsolutePathInsideRoot(t *testing.T) {
	s := tempJournal(t)
	abs := filepath.Join(s.Root(), "Abs Quest.md")
	if err := s.Write(abs, []byte("x")); err != nil {
		t.Fatalf("Write abs: %v", err)
	}
	if !s.Exists("Abs Quest.md") {
		t.Error("file written by absolute path not visible by relative path")
	}
	got, err := s.Abs("Abs Quest.md")
	if err != nil || got != abs {
		t.Errorf("Abs = %q, %v; want %q", got, err, abs)
	}
}

func TestDelete(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("del.md") {
		t.Error("file still exists after delete")
	}
}

func TestMove(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("old.md", []byte("data"))
	if err := s.Move("old.md", "new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("new.md")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old.md"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestList_FlatMarkdownWithoutReserved(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("_values.md", []byte("reserved"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write("sub/deep.md", []byte("nested"))

	items, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].Title != "a" || items[1].Title != "b" {
		t.Errorf("titles = %q, %q", items[0].Title, items[1].Title)
	}
	if items[0].Path != filepath.Join(s.Root(), "a.md") {
		t.Errorf("path = %q", items[0].Path)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempJournal(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		filepath.Join(filepath.Dir(s.Root()), "sibling.md"),
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".questlog-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "questlog-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
