// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the wallpaper archive to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wallhub/internal/apperr"
	"github.com/starford/wallhub/internal/catalog"
)

const (
	schemaURI        = "wallhub://meta-schema"
	defaultListLimit = 30
)

// Server wraps the MCP server with the archive tools.
type Server struct {
	mcp     *server.MCPServer
	catalog *catalog.Catalog
}

type wallpaper struct {
	Source       string `json:"source"`
	Date         string `json:"date"`
	DisplayName  string `json:"display_name"`
	Title        string `json:"title"`
	Copyright    string `json:"copyright"`
	Photographer string `json:"photographer,omitempty"`
	ImageURL     string `json:"image_url"`
	HasImage     bool   `json:"has_image"`
	HasStory     bool   `json:"has_story"`
}

// New creates an MCP server over the catalog.
func New(c *catalog.Catalog, version string) *Server {
	s := &Server{catalog: c}

	s.mcp = server.NewMCPServer(
		"wallhub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List the enabled wallpaper sources in display order."),
	), s.listSources)

	s.mcp.AddTool(mcp.NewTool("list_wallpapers",
		mcp.WithDescription("List archived wallpapers, newest first."),
		mcp.WithString("source", mcp.Description("Source name (empty for all enabled sources)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 30)")),
	), s.listWallpapers)

	s.mcp.AddTool(mcp.NewTool("get_wallpaper",
		mcp.WithDescription("Get the metadata of one archived wallpaper."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source name, e.g. bing")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD format")),
	), s.getWallpaper)

	s.mcp.AddTool(mcp.NewTool("read_story",
		mcp.WithDescription("Read the Markdown story written for a wallpaper."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source name, e.g. bing")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD format")),
	), s.readStory)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Entry format",
			mcp.WithResourceDescription("Archive layout and the meta.json schema."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSchemaResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func lookupError(source, date string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", source, date))
	}
	return mcp.NewToolResultError(err.Error())
}

func toWallpaper(it catalog.Item) wallpaper {
	return wallpaper{
		Source:       it.Source,
		Date:         it.Date,
		DisplayName:  it.DisplayName,
		Title:        it.Meta.Title,
		Copyright:    it.Meta.Copyright,
		Photographer: it.Meta.Photographer,
		ImageURL:     it.Meta.ImageURL,
		HasImage:     it.HasImage,
		HasStory:     it.HasStory,
	}
}

func (s *Server) listSources(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.catalog.Sources())
}

func (s *Server) listWallpapers(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	limit := req.GetInt("limit", defaultListLimit)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	items, err := s.catalog.Recent(source, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown source: %s", source)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]wallpaper, 0, len(items))
	for _, it := range items {
		out = append(out, toWallpaper(it))
	}
	return jsonResult(out)
}

func (s *Server) getWallpaper(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.catalog.Get(source, date)
	if err != nil {
		return lookupError(source, date, err), nil
	}
	return jsonResult(toWallpaper(it))
}

func (s *Server) readStory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.catalog.Story(source, date)
	if err != nil {
		return lookupError(source, date, err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "text/markdown",
			Text:     MetaSchema,
		},
	}, nil
}
