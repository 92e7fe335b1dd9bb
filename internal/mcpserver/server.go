// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/autosave"
	"github.com/starford/ansuz/internal/notes"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp  *server.MCPServer
	repo *notes.Repository
	ctrl *autosave.Controller
}

// New creates a new MCP server with all Ansuz tools registered. Content
// updates go through the autosave controller so the character limit
// applies to LLM edits exactly as it does to human ones.
func New(repo *notes.Repository, ctrl *autosave.Controller) *Server {
	s := &Server{repo: repo, ctrl: ctrl}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, newest first. An optional filter keeps only notes whose title contains it."),
		mcp.WithString("filter", mcp.Description("Optional title filter (case-insensitive substring)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note: content plus derived stats and tags."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id (e.g. default-1)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note, optionally with a title and initial content. "+
			"Content MUST follow the canonical format (small HTML fragment, plain text under "+
			"500 characters, #hashtags become tags). Read the contract first via the "+
			"get_note_contract tool or the ansuz://note-format resource."),
		mcp.WithString("title", mcp.Description("Optional title; defaults to Untitled")),
		mcp.WithString("content", mcp.Description("Optional initial content following the note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace a note's content. The update is rejected if the plain text exceeds the character limit."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content following the note format contract")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note. The default note is protected and cannot be deleted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("note_stats",
		mcp.WithDescription("Derived stats for one note: word count, reading time, category, tags."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.noteStats)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Ansuz note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical note content format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

type noteSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	UpdatedAt   int64    `json:"updatedAt"`
	IsDefault   bool     `json:"isDefault,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	WordCount   int      `json:"wordCount"`
	ReadingTime int      `json:"readingTime"`
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := ""
	if f, err := req.RequireString("filter"); err == nil {
		filter = f
	}

	items := s.repo.List(filter)
	summaries := make([]noteSummary, len(items))
	for i, n := range items {
		summaries[i] = noteSummary{
			ID:          n.ID,
			Title:       n.Title,
			UpdatedAt:   n.UpdatedAt,
			IsDefault:   n.IsDefault,
			Tags:        n.Tags,
			Category:    n.Category,
			WordCount:   n.WordCount,
			ReadingTime: n.ReadingTime,
		}
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.repo.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(n, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.repo.Create()
	if title, err := req.RequireString("title"); err == nil && title != "" {
		if renamed, rerr := s.repo.Rename(n.ID, title); rerr == nil {
			n = renamed
		}
	}
	if content, err := req.RequireString("content"); err == nil && content != "" {
		res, uerr := s.ctrl.Edit(n.ID, content)
		if uerr != nil {
			return mcp.NewToolResultError(uerr.Error()), nil
		}
		if res.Status == autosave.StatusRejected {
			return mcp.NewToolResultError(
				fmt.Sprintf("created %s, but the content was rejected: plain text is %d characters, over the limit",
					n.ID, res.Length)), nil
		}
		s.ctrl.Flush()
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.ctrl.Edit(id, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if res.Status == autosave.StatusRejected {
		return mcp.NewToolResultError(
			fmt.Sprintf("rejected: plain text is %d characters, over the limit", res.Length)), nil
	}
	s.ctrl.Flush()
	if res.Status == autosave.StatusWarning {
		return mcp.NewToolResultText(fmt.Sprintf("updated: %s (%d characters remaining)", id, res.Remaining)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, apperr.ErrProtected) {
			return mcp.NewToolResultError("the default note cannot be deleted"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) noteStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.repo.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"wordCount":   n.WordCount,
		"readingTime": n.ReadingTime,
		"category":    n.Category,
		"tags":        n.Tags,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
