// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the portfolio read tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/projectsvc"
	"github.com/starford/gitfolio/internal/store"
)

// searchLimit caps search_portfolio results.
const searchLimit = 20

// Server wraps the MCP server with the portfolio tools.
type Server struct {
	mcp      *server.MCPServer
	projects *projectsvc.Service
	skills   *store.SkillStore
	articles *store.ArticleStore
	profile  *store.ProfileStore
	idx      index.DocumentIndex
}

// New creates a new MCP server with all portfolio tools registered.
func New(projects *projectsvc.Service, skills *store.SkillStore, articles *store.ArticleStore, profile *store.ProfileStore, idx index.DocumentIndex) *Server {
	s := &Server{projects: projects, skills: skills, articles: articles, profile: profile, idx: idx}

	s.mcp = server.NewMCPServer(
		"Gitfolio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all portfolio projects with language, counters, and pin state."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("read_project_file",
		mcp.WithDescription("Read one file from a project's extracted source tree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path relative to the project root (e.g. src/main.go)")),
	), s.readProjectFile)

	s.mcp.AddTool(mcp.NewTool("get_readme",
		mcp.WithDescription("Read a project's README.md, empty when it has none."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	), s.getReadme)

	s.mcp.AddTool(mcp.NewTool("search_portfolio",
		mcp.WithDescription("Full-text search across project descriptions, READMEs, and articles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPortfolio)

	s.mcp.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List the skills board."),
	), s.listSkills)

	s.mcp.AddTool(mcp.NewTool("read_article",
		mcp.WithDescription("Read the full content of an article by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article id")),
	), s.readArticle)

	// Resource: the public profile object.
	s.mcp.AddResource(
		mcp.NewResource("gitfolio://profile", "Profile",
			mcp.WithResourceDescription("The public profile object served by the portfolio."),
			mcp.WithMIMEType("application/json"),
		),
		s.readProfileResource,
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

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.projects.List(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readProjectFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.projects.FileContent(ctx, id, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(content.Content), nil
}

func (s *Server) getReadme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.projects.Readme(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) searchPortfolio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.idx.Search(query, searchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSkills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.skills.List(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	article, err := s.articles.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(article.Content), nil
}

func (s *Server) readProfileResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(s.profile.Get(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gitfolio://profile",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
