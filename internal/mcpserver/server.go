// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Questlog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/questlog/internal/models"
	"github.com/starford/questlog/internal/questservice"
)

const formatURI = "questlog://quest-format"

// Server wraps the MCP server with Questlog tools.
type Server struct {
	mcp *server.MCPServer
	svc *questservice.Service
}

// New creates a new MCP server with all Questlog tools registered.
func New(svc *questservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Questlog",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_quests",
		mcp.WithDescription("List quests, open ones first. Completed quests are hidden unless requested."),
		mcp.WithBoolean("active", mcp.Description("Only active quests")),
		mcp.WithBoolean("completed", mcp.Description("Include completed quests")),
		mcp.WithString("domain", mcp.Description("Domain name or id to filter by")),
		mcp.WithString("query", mcp.Description("Substring filter on title, goal and notes")),
	), s.listQuests)

	s.mcp.AddTool(mcp.NewTool("search_quests",
		mcp.WithDescription("Full-text search through quest titles, goals and notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchQuests)

	s.mcp.AddTool(mcp.NewTool("get_quest",
		mcp.WithDescription("Read a quest with its objectives."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Quest id")),
	), s.getQuest)

	s.mcp.AddTool(mcp.NewTool("create_quest",
		mcp.WithDescription("Create a quest. Its Markdown file is written to the journal folder."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Quest title, also the file name")),
		mcp.WithString("goal", mcp.Description("One-line goal")),
		mcp.WithString("description", mcp.Description("Free-form notes")),
		mcp.WithString("domain", mcp.Description("Domain name or id")),
		mcp.WithNumber("priority", mcp.Description("0 none, 1 low, 2 medium, 3 high")),
		mcp.WithBoolean("active", mcp.Description("Mark the quest active")),
		mcp.WithString("waiting_for", mcp.Description("Who or what the quest is blocked on")),
		mcp.WithArray("objectives", mcp.WithStringItems(), mcp.Description("Initial objectives in order")),
	), s.createQuest)

	s.mcp.AddTool(mcp.NewTool("complete_quest",
		mcp.WithDescription("Mark a quest completed. Completed quests are no longer active."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Quest id")),
	), s.completeQuest)

	s.mcp.AddTool(mcp.NewTool("add_objective",
		mcp.WithDescription("Append an objective to a quest's checklist."),
		mcp.WithString("quest_id", mcp.Required(), mcp.Description("Quest id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Objective text")),
	), s.addObjective)

	s.mcp.AddTool(mcp.NewTool("toggle_objective",
		mcp.WithDescription("Flip an objective between open and done."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Objective id")),
	), s.toggleObjective)

	s.mcp.AddTool(mcp.NewTool("import_journal",
		mcp.WithDescription("Import quest files from a folder. Files already linked to a quest are not duplicated."),
		mcp.WithString("dir", mcp.Description("Folder to import (empty for the journal folder)")),
	), s.importJournal)

	s.mcp.AddTool(mcp.NewTool("get_quest_format",
		mcp.WithDescription("Returns the Markdown format of quest files. "+
			"Call this before writing quest files by hand."),
	), s.getQuestFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Quest Format",
			mcp.WithResourceDescription("Markdown layout of a quest file in the journal folder."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQuestFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// resolveDomain accepts a domain name (case-insensitive) or id.
func (s *Server) resolveDomain(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	domains, err := s.svc.ListDomains(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(domains))
	for _, d := range domains {
		if d.ID == ref || strings.EqualFold(d.Name, ref) {
			return d.ID, nil
		}
		names = append(names, d.Name)
	}
	return "", fmt.Errorf("unknown domain %q (known: %s)", ref, strings.Join(names, ", "))
}

func (s *Server) listQuests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := s.resolveDomain(ctx, req.GetString("domain", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	quests, err := s.svc.ListQuests(ctx, models.QuestFilter{
		Domain:        domain,
		ActiveOnly:    req.GetBool("active", false),
		ShowCompleted: req.GetBool("completed", false),
		Query:         req.GetString("query", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(quests) == 0 {
		return mcp.NewToolResultText("no quests found"), nil
	}
	return jsonResult(quests), nil
}

func (s *Server) searchQuests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	quests, err := s.svc.SearchQuests(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(quests) == 0 {
		return mcp.NewToolResultText("no quests found"), nil
	}
	return jsonResult(quests), nil
}

func (s *Server) getQuest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := s.svc.GetQuest(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("quest %s: %v", id, err)), nil
	}
	return jsonResult(q), nil
}

func (s *Server) createQuest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	domain, err := s.resolveDomain(ctx, req.GetString("domain", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := s.svc.CreateQuest(ctx, questservice.NewQuest{
		Title:       title,
		Goal:        req.GetString("goal", ""),
		Description: req.GetString("description", ""),
		Domain:      domain,
		Active:      req.GetBool("active", false),
		WaitingFor:  req.GetString("waiting_for", ""),
		Priority:    req.GetInt("priority", models.PriorityNone),
		Objectives:  req.GetStringSlice("objectives", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(q), nil
}

func (s *Server) completeQuest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	done := true
	q, err := s.svc.UpdateQuest(ctx, id, questservice.QuestChanges{Completed: &done})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("quest %s: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("completed: %s", q.Title)), nil
}

func (s *Server) addObjective(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	questID, err := req.RequireString("quest_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	o, err := s.svc.CreateObjective(ctx, questID, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(o), nil
}

func (s *Server) toggleObjective(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	o, err := s.svc.ToggleObjective(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("objective %s: %v", id, err)), nil
	}
	return jsonResult(o), nil
}

func (s *Server) importJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Import(ctx, req.GetString("dir", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getQuestFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QuestFormatContract), nil
}

func (s *Server) readQuestFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     QuestFormatContract,
		},
	}, nil
}
