// Package mcp exposes a loaded documentation tree over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jcdickinson/crystalref/internal/docs"
	"github.com/jcdickinson/crystalref/internal/highlight"
	"github.com/jcdickinson/crystalref/internal/render"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/singleflight"
)

//go:embed instructions.md
var instructions string

const uriScheme = "crystal://"

// Loader produces the documentation tree. It is called at most once per
// server unless it fails.
type Loader func(ctx context.Context) (*docs.Tree, error)

type Options struct {
	Render    render.Options
	Highlight highlight.Func
	// BaseURL prefixes the page paths reported by list_objects.
	BaseURL string
}

type Server struct {
	mcpServer *server.MCPServer
	load      Loader
	opts      Options

	loadGroup singleflight.Group
	mu        sync.Mutex
	renderer  *render.Renderer
}

func NewServer(load Loader, opts Options) *Server {
	s := &Server{load: load, opts: opts}

	mcpServer := server.NewMCPServer(
		"crystalref",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("lookup_identifier",
			mcp.WithDescription("Resolve a Crystal identifier (e.g. \"Foo::Bar#baz\") to its canonical id, kind and page."),
			mcp.WithString("identifier",
				mcp.Description("Identifier to resolve"),
				mcp.Required(),
			),
			mcp.WithString("scope",
				mcp.Description("Canonical id of the type to resolve from, as a doc comment inside it would"),
			),
		),
		s.handleLookup,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_objects",
			mcp.WithDescription("List every documented identifier with the URL of its page."),
			mcp.WithString("base_url",
				mcp.Description("Optional URL the page paths are joined onto"),
			),
		),
		s.handleListObjects,
	)

	mcpServer.AddTool(
		mcp.NewTool("render_item",
			mcp.WithDescription("Render the documentation of an identifier as HTML, with highlighted signatures and cross-references."),
			mcp.WithString("identifier",
				mcp.Description("Identifier to render"),
				mcp.Required(),
			),
		),
		s.handleRender,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriScheme+"{id}",
			"Crystal documentation item",
			mcp.WithTemplateDescription("Rendered documentation of one identifier."),
			mcp.WithTemplateMIMEType("text/html"),
		),
		s.handleReadResource,
	)
}

// rendererFor loads the tree on first use. Concurrent first calls share one load.
func (s *Server) rendererFor(ctx context.Context) (*render.Renderer, error) {
	s.mu.Lock()
	r := s.renderer
	s.mu.Unlock()
	if r != nil {
		return r, nil
	}

	v, err, _ := s.loadGroup.Do("tree", func() (interface{}, error) {
		s.mu.Lock()
		r := s.renderer
		s.mu.Unlock()
		if r != nil {
			return r, nil
		}
		tree, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		r = render.New(tree, s.opts.Highlight, nil, s.opts.Render)
		s.mu.Lock()
		s.renderer = r
		s.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading documentation: %w", err)
	}
	return v.(*render.Renderer), nil
}

type lookupResult struct {
	AbsID    string `json:"abs_id"`
	Kind     string `json:"kind"`
	FullName string `json:"full_name"`
	Path     string `json:"path"`
	Anchor   string `json:"anchor,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

func (s *Server) handleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	identifier, _ := args["identifier"].(string)
	if identifier == "" {
		return mcp.NewToolResultError("missing required parameter: identifier"), nil
	}

	r, err := s.rendererFor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tree := r.Tree()

	var scope *docs.Item
	if scopeID, _ := args["scope"].(string); scopeID != "" {
		var ok bool
		if scope, ok = tree.ByAbsID(scopeID); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown scope %q", scopeID)), nil
		}
	}

	it, err := tree.Lookup(identifier, scope)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resultJSON, _ := json.MarshalIndent(lookupResult{
		AbsID:    it.AbsID(),
		Kind:     string(it.Kind()),
		FullName: it.FullName(),
		Path:     it.Path(),
		Anchor:   it.Anchor(),
		Summary:  it.Summary(),
	}, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

type objectResult struct {
	AbsID string `json:"abs_id"`
	Kind  string `json:"kind"`
	URL   string `json:"url"`
}

func (s *Server) handleListObjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseURL, _ := req.GetArguments()["base_url"].(string)
	if baseURL == "" {
		baseURL = s.opts.BaseURL
	}

	r, err := s.rendererFor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	objs := docs.ListObjectURLs(r.Tree(), baseURL)
	results := make([]objectResult, len(objs))
	for i, o := range objs {
		results[i] = objectResult{AbsID: o.AbsID, Kind: string(o.Kind), URL: o.Path}
	}
	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, _ := req.GetArguments()["identifier"].(string)
	if identifier == "" {
		return mcp.NewToolResultError("missing required parameter: identifier"), nil
	}

	page, err := s.renderPage(ctx, identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(page.HTML), nil
}

func (s *Server) renderPage(ctx context.Context, identifier string) (render.Page, error) {
	r, err := s.rendererFor(ctx)
	if err != nil {
		return render.Page{}, err
	}
	return r.Render(identifier, nil)
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	identifier := strings.TrimPrefix(uri, uriScheme)
	if identifier == uri || identifier == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	page, err := s.renderPage(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", identifier, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/html",
			Text:     page.HTML,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
