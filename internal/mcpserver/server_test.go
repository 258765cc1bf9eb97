package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/questlog/internal/journal"
	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questservice"
	"github.com/starford/questlog/internal/selfwrite"
	"github.com/starford/questlog/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	db := testutil.TestDB(t)
	dir, _ := testutil.TestJournal(t)

	syncer := journal.New(db, selfwrite.New(0), testutil.Logger())
	svc := questservice.NewService(db, syncer, testutil.Logger(), 0)
	if err := svc.Start(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	return New(svc), dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_quests":
		result, err = srv.listQuests(ctx, req)
	case "search_quests":
		result, err = srv.searchQuests(ctx, req)
	case "get_quest":
		result, err = srv.getQuest(ctx, req)
	case "create_quest":
		result, err = srv.createQuest(ctx, req)
	case "complete_quest":
		result, err = srv.completeQuest(ctx, req)
	case "add_objective":
		result, err = srv.addObjective(ctx, req)
	case "toggle_objective":
		result, err = srv.toggleObjective(ctx, req)
	case "import_journal":
		result, err = srv.importJournal(ctx, req)
	case "get_quest_format":
		result, err = srv.getQuestFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createQuest(t *testing.T, srv *Server, args map[string]interface{}) models.QuestWithObjectives {
	t.Helper()
	r := callTool(t, srv, "create_quest", args)
	if r.IsError {
		t.Fatalf("create_quest: %s", resultText(r))
	}
	var q models.QuestWithObjectives
	if err := json.Unmarshal([]byte(resultText(r)), &q); err != nil {
		t.Fatalf("decode quest: %v", err)
	}
	return q
}

func TestCreateAndGetQuest(t *testing.T) {
	srv, dir := testServer(t)

	q := createQuest(t, srv, map[string]interface{}{
		"title":      "Slay the dragon",
		"domain":     "work",
		"priority":   float64(3),
		"objectives": []interface{}{"Find lair", "Sharpen sword"},
	})
	if q.Priority != 3 || len(q.Objectives) != 2 {
		t.Errorf("created %+v", q)
	}
	if _, err := os.Stat(filepath.Join(dir, "Slay the dragon.md")); err != nil {
		t.Errorf("quest file missing: %v", err)
	}

	r := callTool(t, srv, "get_quest", map[string]interface{}{"id": q.ID})
	if !strings.Contains(resultText(r), `"title": "Slay the dragon"`) {
		t.Errorf("get_quest = %s", resultText(r))
	}
}

func TestCreateQuestUnknownDomain(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_quest", map[string]interface{}{"title": "x", "domain": "Atlantis"})
	if !r.IsError || !strings.Contains(resultText(r), "unknown domain") {
		t.Errorf("result = %q, want unknown domain error", resultText(r))
	}
}

func TestGetQuestMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_quest", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing quest")
	}
}

func TestCompleteQuest(t *testing.T) {
	srv, _ := testServer(t)
	q := createQuest(t, srv, map[string]interface{}{"title": "Finish me", "active": true})

	r := callTool(t, srv, "complete_quest", map[string]interface{}{"id": q.ID})
	if resultText(r) != "completed: Finish me" {
		t.Errorf("complete_quest = %q", resultText(r))
	}

	r = callTool(t, srv, "list_quests", map[string]interface{}{})
	if resultText(r) != "no quests found" {
		t.Errorf("completed quest still listed: %s", resultText(r))
	}
	r = callTool(t, srv, "list_quests", map[string]interface{}{"completed": true})
	if !strings.Contains(resultText(r), "Finish me") {
		t.Errorf("completed listing = %s", resultText(r))
	}
}

func TestObjectiveTools(t *testing.T) {
	srv, dir := testServer(t)
	q := createQuest(t, srv, map[string]interface{}{"title": "Chores"})

	r := callTool(t, srv, "add_objective", map[string]interface{}{"quest_id": q.ID, "text": "Dishes"})
	if r.IsError {
		t.Fatalf("add_objective: %s", resultText(r))
	}
	var o models.Objective
	if err := json.Unmarshal([]byte(resultText(r)), &o); err != nil {
		t.Fatal(err)
	}

	r = callTool(t, srv, "toggle_objective", map[string]interface{}{"id": o.ID})
	if !strings.Contains(resultText(r), `"completed": true`) {
		t.Errorf("toggle = %s", resultText(r))
	}
	data, _ := os.ReadFile(filepath.Join(dir, "Chores.md"))
	if !strings.Contains(string(data), "- [x] Dishes") {
		t.Errorf("file not updated:\n%s", data)
	}
}

func TestImportJournal(t *testing.T) {
	srv, dir := testServer(t)
	testutil.WriteFile(t, dir, "Dropped in.md", "---\npriority: 1\n---\n## QuestLog\n- 2024-01-01: Appeared by hand\n")

	r := callTool(t, srv, "import_journal", map[string]interface{}{})
	var res journal.ImportResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if res.Imported != 1 {
		t.Errorf("imported = %d, want 1", res.Imported)
	}

	r = callTool(t, srv, "search_quests", map[string]interface{}{"query": "Dropped"})
	if !strings.Contains(resultText(r), "Appeared by hand") {
		t.Errorf("search = %s", resultText(r))
	}
}

func TestQuestFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_quest_format", map[string]interface{}{})
	if !strings.Contains(resultText(r), "## Objectives") {
		t.Error("format contract missing Objectives section")
	}

	contents, err := srv.readQuestFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != formatURI || tc.Text != QuestFormatContract {
		t.Errorf("resource = %+v", contents[0])
	}
}
