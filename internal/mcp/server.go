// Package mcp exposes ClawCRM over the Model Context Protocol so
// agent frontends can preview and confirm ingestions without touching
// the database directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Kyrillus/ClawCRM/internal/ingest"
	"github.com/Kyrillus/ClawCRM/internal/llm"
	"github.com/Kyrillus/ClawCRM/internal/resolve"
	"github.com/Kyrillus/ClawCRM/internal/store"
)

// Server wires the pipeline and store into MCP tools.
type Server struct {
	mcp      *server.MCPServer
	store    *store.Store
	pipeline *ingest.Pipeline
	provider llm.Provider
	resolver *resolve.Resolver
	log      *zap.Logger

	// Serializes multi-step tool handlers so a confirm cannot interleave
	// with a concurrent preview touching the same rows.
	mu sync.Mutex
}

// NewServer builds the MCP server and registers every tool.
func NewServer(s *store.Store, p *ingest.Pipeline, provider llm.Provider, r *resolve.Resolver, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &Server{
		mcp: server.NewMCPServer("clawcrm", version,
			server.WithToolCapabilities(false)),
		store:    s,
		pipeline: p,
		provider: provider,
		resolver: r,
		log:      log,
	}
	srv.registerTools()
	return srv
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("crm_ingest_preview",
		mcp.WithDescription("Extract people, summary, and topics from a meeting note and resolve names against the roster. Changes no roster data; returns a token for crm_ingest_confirm."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The raw meeting note")),
		mcp.WithString("date", mcp.Description("Meeting date, RFC3339 or YYYY-MM-DD; defaults to now")),
	), s.handlePreview)

	s.mcp.AddTool(mcp.NewTool("crm_ingest_confirm",
		mcp.WithDescription("Apply a previewed ingestion: store the meeting, create or link people, and strengthen relationships."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Token from crm_ingest_preview")),
		mcp.WithString("assignments", mcp.Description("Optional JSON array of {name, person_id, skip} overrides")),
	), s.handleConfirm)

	s.mcp.AddTool(mcp.NewTool("crm_resolve",
		mcp.WithDescription("Score a person name against the roster and return ranked candidates."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The name to resolve")),
	), s.handleResolve)

	s.mcp.AddTool(mcp.NewTool("crm_person_search",
		mcp.WithDescription("Semantic search over people by their accumulated context."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results, default 5")),
	), s.handlePersonSearch)

	s.mcp.AddTool(mcp.NewTool("crm_stats",
		mcp.WithDescription("Counts of people, meetings, and relationships in the database."),
	), s.handleStats)
}

func (s *Server) handlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var date time.Time
	if raw := req.GetString("date", ""); raw != "" {
		date, err = parseDate(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pv, err := s.pipeline.Preview(ctx, text, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
	}
	return jsonResult(pv)
}

func (s *Server) handleConfirm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var assignments []ingest.Assignment
	if raw := req.GetString("assignments", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &assignments); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("bad assignments: %v", err)), nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conf, err := s.pipeline.Confirm(ctx, token, assignments)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("confirm failed: %v", err)), nil
	}
	return jsonResult(conf)
}

func (s *Server) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load roster: %v", err)), nil
	}
	roster := make([]resolve.RosterEntry, len(people))
	for i, p := range people {
		roster[i] = resolve.RosterEntry{ID: p.ID, Name: p.Name}
	}
	return jsonResult(s.resolver.Resolve(name, roster))
}

func (s *Server) handlePersonSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 5)

	vec, err := s.provider.Embed(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embed query: %v", err)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	matches, err := s.store.SearchPeopleByVector(ctx, vec, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(matches)
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(st)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q, want RFC3339 or YYYY-MM-DD", raw)
}
