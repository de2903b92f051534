package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/oedify/internal/convert"
	"github.com/starford/oedify/internal/entryservice"
	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db := testutil.TestDB(t)
	testutil.Seed(t, db, []models.Entry{
		{Headword: "cat", Synonyms: []string{"cat flap"}, Definition: `<span class="headword">cat</span> a feline`},
		{Headword: "bank", HomographIndex: 1, Definition: `<span class="headword">bank</span> a slope`},
		{Headword: "bank", HomographIndex: 2, Definition: `<span class="headword">bank</span> a lender`},
	}, nil)
	return New(entryservice.NewService(db, convert.Options{}), "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "lookup_entry":
		result, err = srv.lookupEntry(ctx, req)
	case "search_entries":
		result, err = srv.searchEntries(ctx, req)
	case "preview_markup":
		result, err = srv.previewMarkup(ctx, req)
	case "get_markup_contract":
		result, err = srv.getMarkupContract(ctx, req)
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

func TestLookupEntry(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "lookup_entry", map[string]any{"word": "BANK"})
	if r.IsError {
		t.Fatalf("lookup failed: %s", resultText(r))
	}
	var entries []entryservice.EntryDetail
	if err := json.Unmarshal([]byte(resultText(r)), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Homograph != 1 || entries[1].Homograph != 2 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestLookupEntryBySynonym(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "lookup_entry", map[string]any{"word": "cat flap"})
	if r.IsError || !strings.Contains(resultText(r), "a feline") {
		t.Errorf("lookup by synonym = %q", resultText(r))
	}
}

func TestLookupEntryMissing(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "lookup_entry", map[string]any{"word": "nope"})
	if !r.IsError {
		t.Error("expected error for missing entry")
	}
	r = callTool(t, srv, "lookup_entry", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing argument")
	}
}

func TestSearchEntries(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_entries", map[string]any{"query": "lender", "limit": 5})
	if r.IsError {
		t.Fatalf("search failed: %s", resultText(r))
	}
	var hits []entryservice.SearchHit
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Headword != "bank" || hits[0].Homograph != 2 {
		t.Errorf("hits = %+v", hits)
	}

	r = callTool(t, srv, "search_entries", map[string]any{"query": "zebra"})
	if resultText(r) != "no matches" {
		t.Errorf("empty search = %q", resultText(r))
	}
}

func TestPreviewMarkup(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "preview_markup", map[string]any{
		"headword":     "cat",
		"markup":       `<span class="headword"><b>cat</b></span> see <b>cat flap</b>`,
		"add_synonyms": true,
	})
	if r.IsError {
		t.Fatalf("preview failed: %s", resultText(r))
	}
	var res entryservice.PreviewResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	if words := res.Entries[0].Words; len(words) != 2 || words[1] != "cat flap" {
		t.Errorf("words = %v", words)
	}
	if len(res.Candidates) == 0 {
		t.Error("expected synonym candidates")
	}
}

func TestPreviewMarkupInvalid(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "preview_markup", map[string]any{"headword": "a\tb", "markup": "x"})
	if !r.IsError {
		t.Error("expected error for headword with tab")
	}
}

func TestMarkupContract(t *testing.T) {
	srv := testServer(t)

	text := resultText(callTool(t, srv, "get_markup_contract", map[string]any{}))
	for _, class := range []string{"etymology", "senses", "subsenses", "major-division", "pos", "quotations", "usage-note"} {
		if !strings.Contains(text, class) {
			t.Errorf("contract does not document %q", class)
		}
	}

	contents, err := srv.readMarkupClassesResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != markupClassesURI {
		t.Errorf("resource = %+v", contents)
	}
}
