package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/notes"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *notes.Repository) {
	t.Helper()
	repo, ctrl := testutil.TestEngine(t)
	return New(repo, ctrl), repo
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// Since mcp-go doesn't expose a direct "call tool" test helper, we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "note_stats":
		result, err = srv.noteStats(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
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

func TestCreateAndReadNote(t *testing.T) {
	srv, repo := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":   "Standup",
		"content": "<p>Weekly standup notes #work</p>",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	n, err := repo.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Title != "Standup" || n.Content != "<p>Weekly standup notes #work</p>" {
		t.Errorf("note = %+v", n)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	if !strings.Contains(resultText(r), `"work"`) {
		t.Errorf("read result missing derived tag: %q", resultText(r))
	}
}

func TestUpdateNoteRespectsLimit(t *testing.T) {
	srv, repo := testServer(t)
	n := repo.Create()

	r := callTool(t, srv, "update_note", map[string]interface{}{
		"id":      n.ID,
		"content": "<p>short and sweet</p>",
	})
	if r.IsError {
		t.Fatalf("update errored: %q", resultText(r))
	}
	got, _ := repo.Get(n.ID)
	if got.Content != "<p>short and sweet</p>" {
		t.Errorf("content = %q", got.Content)
	}

	r = callTool(t, srv, "update_note", map[string]interface{}{
		"id":      n.ID,
		"content": "<p>" + strings.Repeat("x", 501) + "</p>",
	})
	if !r.IsError {
		t.Error("over-limit update was accepted")
	}
	got, _ = repo.Get(n.ID)
	if got.Content != "<p>short and sweet</p>" {
		t.Error("over-limit update reached the repository")
	}
}

func TestListNotesFilter(t *testing.T) {
	srv, repo := testServer(t)
	n := repo.Create()
	repo.Rename(n.ID, "Grocery List")

	r := callTool(t, srv, "list_notes", map[string]interface{}{"filter": "grocery"})
	text := resultText(r)
	if !strings.Contains(text, "Grocery List") {
		t.Errorf("filtered list = %q", text)
	}
	if strings.Contains(text, notes.DefaultNoteTitle) {
		t.Errorf("filter leaked other notes: %q", text)
	}
}

func TestDeleteNoteGuardsDefault(t *testing.T) {
	srv, repo := testServer(t)
	n := repo.Create()

	r := callTool(t, srv, "delete_note", map[string]interface{}{"id": notes.DefaultNoteID})
	if !r.IsError {
		t.Error("default note was deleted")
	}
	r = callTool(t, srv, "delete_note", map[string]interface{}{"id": n.ID})
	if r.IsError {
		t.Errorf("delete errored: %q", resultText(r))
	}
	if _, err := repo.Get(n.ID); err == nil {
		t.Error("note still present after delete")
	}
}

func TestNoteStats(t *testing.T) {
	srv, repo := testServer(t)
	n := repo.Create()
	repo.UpdateContent(n.ID, "<p>Meeting with #work team #urgent tomorrow</p>")

	r := callTool(t, srv, "note_stats", map[string]interface{}{"id": n.ID})
	text := resultText(r)
	for _, want := range []string{`"wordCount": 6`, `"readingTime": 1`, `"category": "work"`, `"urgent"`} {
		if !strings.Contains(text, want) {
			t.Errorf("stats missing %s in %q", want, text)
		}
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestContractTool(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "500 characters") {
		t.Error("contract text missing the character limit")
	}
}
