package journal

import (
	"testing"

	"github.com/starford/questlog/internal/testutil"
)

func TestImport_Idempotent(t *testing.T) {
	s, db, dir := testSyncer(t)
	testutil.WriteFile(t, dir, "Slay the Dragon.md", dragonMD)
	testutil.WriteFile(t, dir, "Garden.md", "## Notes\nweeds\n")
	testutil.WriteFile(t, dir, "_values.md", "reserved")
	testutil.WriteFile(t, dir, "readme.txt", "ignored")

	first, err := s.Import(dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if first.Imported != 2 || first.Skipped != 0 || first.Updated != 0 {
		t.Errorf("first = %+v", first)
	}

	second, err := s.Import(dir)
	if err != nil {
		t.Fatal(err)
	}
	if second.Imported != 0 || second.Skipped != 2 || second.Updated != 0 {
		t.Errorf("second = %+v", second)
	}

	files, _ := db.SourceFiles()
	if len(files) != 2 {
		t.Errorf("linked files = %d, want 2", len(files))
	}
}

func TestImport_PushesChangedPriority(t *testing.T) {
	s, db, dir := testSyncer(t)
	path := testutil.WriteFile(t, dir, "P.md", "---\npriority: 1\n---\n## Notes\nkeep\n")
	if _, err := s.Import(dir); err != nil {
		t.Fatal(err)
	}

	testutil.WriteFile(t, dir, "P.md", "---\npriority: 3\n---\n## Notes\nchanged notes\n")
	res, err := s.Import(dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 || res.Imported != 0 {
		t.Errorf("res = %+v", res)
	}
	q, _ := db.FindQuestBySourceFile(path)
	if q.Priority != 3 {
		t.Errorf("priority = %d", q.Priority)
	}
	if q.Description != "keep" {
		t.Errorf("description re-derived on import: %q", q.Description)
	}
}

func TestImport_BadFileCounted(t *testing.T) {
	s, _, dir := testSyncer(t)
	testutil.WriteFile(t, dir, "Bad.md", "---\n: [\n---\n")
	testutil.WriteFile(t, dir, "Good.md", "## Notes\nok\n")
	res, err := s.Import(dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 || res.Failed != 1 {
		t.Errorf("res = %+v", res)
	}
}

func TestImport_MalformedLinkedFileSkipped(t *testing.T) {
	s, db, dir := testSyncer(t)
	path := testutil.WriteFile(t, dir, "Linked.md", "---\npriority: 2\n---\n## Notes\nfine\n")
	testutil.WriteFile(t, dir, "Other.md", "## Notes\nok\n")
	if _, err := s.Import(dir); err != nil {
		t.Fatal(err)
	}

	testutil.WriteFile(t, dir, "Linked.md", "---\n: [\n---\n")
	res, err := s.Import(dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 2 || res.Failed != 0 || res.Imported != 0 || res.Updated != 0 {
		t.Errorf("res = %+v, want every file skipped", res)
	}
	q, _ := db.FindQuestBySourceFile(path)
	if q == nil || q.Priority != 2 || q.Description != "fine" {
		t.Errorf("linked quest changed: %+v", q)
	}
}

func TestImport_MissingDir(t *testing.T) {
	s, _, dir := testSyncer(t)
	if _, err := s.Import(dir + "/nope"); err == nil {
		t.Error("expected error for missing dir")
	}
}
