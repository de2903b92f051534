// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dictionary lookup and markup preview tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/entryservice"
)

const markupClassesURI = "oedify://markup-classes"

// Server wraps the MCP server with the dictionary tools.
type Server struct {
	mcp *server.MCPServer
	svc *entryservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *entryservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"oedify",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("lookup_entry",
		mcp.WithDescription("Look up dictionary entries by headword, alternate spelling or synonym. "+
			"Returns every homograph with its classed definition markup."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to look up (case-insensitive)")),
	), s.lookupEntry)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search over headwords, search keys and definitions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20, max 200)")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("preview_markup",
		mcp.WithDescription("Run one raw source record through quirk resolution, homograph "+
			"splitting and normalization without touching the index. Read the class "+
			"vocabulary via get_markup_contract to interpret the output."),
		mcp.WithString("headword", mcp.Required(), mcp.Description("Source headword")),
		mcp.WithString("markup", mcp.Required(), mcp.Description("Raw legacy markup of the record")),
		mcp.WithBoolean("add_synonyms", mcp.Description("Also extract synonyms and report every candidate")),
	), s.previewMarkup)

	s.mcp.AddTool(mcp.NewTool("get_markup_contract",
		mcp.WithDescription("Returns the vocabulary of CSS classes used in normalized entries."),
	), s.getMarkupContract)

	s.mcp.AddResource(
		mcp.NewResource(markupClassesURI, "Markup Class Vocabulary",
			mcp.WithResourceDescription("Semantic classes that normalized dictionary markup is built from."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkupClassesResource,
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

func (s *Server) lookupEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.svc.Lookup(ctx, word)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", word)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return jsonResult(hits)
}

func (s *Server) previewMarkup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	headword, err := req.RequireString("headword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("markup")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Preview(ctx, entryservice.PreviewRequest{
		Headword:    headword,
		Markup:      raw,
		AddSynonyms: req.GetBool("add_synonyms", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getMarkupContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupClassContract), nil
}

func (s *Server) readMarkupClassesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      markupClassesURI,
			MIMEType: "text/markdown",
			Text:     MarkupClassContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
