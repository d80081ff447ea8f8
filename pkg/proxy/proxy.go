package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/mozilla-ai/mcpd-proxy/pkg/mcpd"
)

// DaemonClient is the slice of the mcpd daemon API the proxy depends on:
// discovery and health (the directory side) plus per-server capability calls
// (the backend side). *mcpd.Client satisfies it; tests substitute fakes.
type DaemonClient interface {
	ListServers(ctx context.Context) ([]string, error)
	ServerHealth(ctx context.Context) ([]mcpd.ServerHealth, error)
	RefreshHealth(ctx context.Context) error

	ListTools(ctx context.Context, server string) ([]*mcp.Tool, error)
	ListPrompts(ctx context.Context, server string) ([]*mcp.Prompt, error)
	ListResources(ctx context.Context, server string) ([]*mcp.Resource, error)
	ListResourceTemplates(ctx context.Context, server string) ([]*mcp.ResourceTemplate, error)
	CallTool(ctx context.Context, server, tool string, args any) (string, error)
	ReadResource(ctx context.Context, server, uri string) ([]*mcp.ResourceContents, error)
	GetPrompt(ctx context.Context, server, name string, args map[string]string) (*mcp.GetPromptResult, error)
}

var _ DaemonClient = (*mcpd.Client)(nil)

// MCP method names intercepted by the proxy's receiving middleware.
const (
	methodPing                  = "ping"
	methodToolsList             = "tools/list"
	methodToolsCall             = "tools/call"
	methodPromptsList           = "prompts/list"
	methodPromptsGet            = "prompts/get"
	methodResourcesList         = "resources/list"
	methodResourcesRead         = "resources/read"
	methodResourceTemplatesList = "resources/templates/list"
)

// Proxy exposes every MCP server managed by an mcpd daemon as one MCP server.
// Capability listings fan out to all healthy backends on every request and
// merge under the namespacing scheme; calls are decoded and routed back to
// the owning backend.
type Proxy struct {
	daemon DaemonClient
	opts   Options

	server        *mcp.Server
	streamHandler *mcp.StreamableHTTPHandler
	httpHandler   http.Handler

	httpServerMu sync.Mutex
	httpServer   *http.Server
}

// New builds a Proxy on top of an mcpd daemon client.
func New(daemon DaemonClient, opts *Options) (*Proxy, error) {
	if daemon == nil {
		return nil, fmt.Errorf("proxy: daemon client is required")
	}
	options := opts.withDefaults()
	p := &Proxy{
		daemon: daemon,
		opts:   options,
	}

	p.server = mcp.NewServer(options.Implementation, &mcp.ServerOptions{
		HasTools:     true,
		HasPrompts:   true,
		HasResources: true,
	})
	p.server.AddReceivingMiddleware(p.dispatch)
	p.streamHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return p.server
	}, &options.Streamable)
	p.httpHandler = p.mountHandler()
	return p, nil
}

// Options returns the effective options after defaulting.
func (p *Proxy) Options() Options {
	return p.opts
}

// ListTools aggregates the tool lists of every healthy backend under the
// {server}__{name} scheme.
func (p *Proxy) ListTools(ctx context.Context) *mcp.ListToolsResult {
	servers := p.serversForAggregation(ctx)
	tools := aggregate(ctx, p.opts.Logger, servers, p.daemon.ListTools, p.namespaceTool)
	return &mcp.ListToolsResult{Tools: tools}
}

// ListPrompts aggregates the prompt lists of every healthy backend.
func (p *Proxy) ListPrompts(ctx context.Context) *mcp.ListPromptsResult {
	servers := p.serversForAggregation(ctx)
	prompts := aggregate(ctx, p.opts.Logger, servers, p.daemon.ListPrompts, p.namespacePrompt)
	return &mcp.ListPromptsResult{Prompts: prompts}
}

// ListResources aggregates the resource lists of every healthy backend with
// URIs rewritten to mcpd://{server}/{uri}.
func (p *Proxy) ListResources(ctx context.Context) *mcp.ListResourcesResult {
	servers := p.serversForAggregation(ctx)
	resources := aggregate(ctx, p.opts.Logger, servers, p.daemon.ListResources, p.namespaceResource)
	return &mcp.ListResourcesResult{Resources: resources}
}

// ListResourceTemplates aggregates the resource template lists of every
// healthy backend.
func (p *Proxy) ListResourceTemplates(ctx context.Context) *mcp.ListResourceTemplatesResult {
	servers := p.serversForAggregation(ctx)
	templates := aggregate(ctx, p.opts.Logger, servers, p.daemon.ListResourceTemplates, p.namespaceResourceTemplate)
	return &mcp.ListResourceTemplatesResult{ResourceTemplates: templates}
}

// CallTool decodes a namespaced tool name, routes the call to the owning
// backend, and wraps the daemon's raw result as text content. Every failure,
// including a malformed name, comes back as a structured result with IsError
// set; this method does not return protocol errors.
func (p *Proxy) CallTool(ctx context.Context, full string, args any) *mcp.CallToolResult {
	server, name, err := SplitName(full, "tool")
	if err != nil {
		return translateToolError(err)
	}
	out, err := p.daemon.CallTool(ctx, server, name, args)
	if err != nil {
		p.opts.Logger.Debug("tool call failed", "server", server, "tool", name, "error", err)
		return translateToolError(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out}},
	}
}

// ReadResource decodes a namespaced resource URI and forwards the native URI
// verbatim to the owning backend. Contents pass through opaquely, text and
// blob alike. Failures surface as errors carrying the translated diagnostic,
// since read results have no error flag of their own.
func (p *Proxy) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	server, native, err := SplitURI(uri)
	if err != nil {
		return nil, err
	}
	contents, err := p.daemon.ReadResource(ctx, server, native)
	if err != nil {
		p.opts.Logger.Debug("resource read failed", "server", server, "uri", native, "error", err)
		return nil, errors.New(diagnostic(err))
	}
	return &mcp.ReadResourceResult{Contents: contents}, nil
}

// GetPrompt decodes a namespaced prompt name and forwards the request to the
// owning backend. A backend that omits messages yields an empty sequence.
func (p *Proxy) GetPrompt(ctx context.Context, full string, args map[string]string) (*mcp.GetPromptResult, error) {
	server, name, err := SplitName(full, "prompt")
	if err != nil {
		return nil, err
	}
	result, err := p.daemon.GetPrompt(ctx, server, name, args)
	if err != nil {
		p.opts.Logger.Debug("prompt request failed", "server", server, "prompt", name, "error", err)
		return nil, errors.New(diagnostic(err))
	}
	if result.Messages == nil {
		result.Messages = []*mcp.PromptMessage{}
	}
	return result, nil
}

// Ping refreshes the daemon's health snapshot. Unlike every other operation a
// daemon failure here propagates: ping exists to surface exactly that.
func (p *Proxy) Ping(ctx context.Context) error {
	return p.daemon.RefreshHealth(ctx)
}

// dispatch intercepts the aggregated MCP methods ahead of the SDK's static
// feature registry; everything else (initialize, notifications) falls
// through to the SDK.
func (p *Proxy) dispatch(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		switch method {
		case methodToolsList:
			return p.ListTools(ctx), nil
		case methodToolsCall:
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				break
			}
			return p.CallTool(ctx, call.Params.Name, call.Params.Arguments), nil
		case methodPromptsList:
			return p.ListPrompts(ctx), nil
		case methodPromptsGet:
			get, ok := req.(*mcp.GetPromptRequest)
			if !ok || get.Params == nil {
				break
			}
			return p.GetPrompt(ctx, get.Params.Name, get.Params.Arguments)
		case methodResourcesList:
			return p.ListResources(ctx), nil
		case methodResourceTemplatesList:
			return p.ListResourceTemplates(ctx), nil
		case methodResourcesRead:
			read, ok := req.(*mcp.ReadResourceRequest)
			if !ok || read.Params == nil {
				break
			}
			return p.ReadResource(ctx, read.Params.URI)
		case methodPing:
			if err := p.Ping(ctx); err != nil {
				return nil, err
			}
		}
		return next(ctx, method, req)
	}
}

// Run serves the proxy over a single transport until the context is
// cancelled, e.g. mcp.StdioTransport for stdio clients.
func (p *Proxy) Run(ctx context.Context, transport mcp.Transport) error {
	return p.server.Run(ctx, transport)
}

// Handler exposes the HTTP handler serving the Streamable endpoint.
func (p *Proxy) Handler() http.Handler {
	return p.httpHandler
}

// ListenAndServe runs an HTTP server until the provided context is cancelled
// or the server stops.
func (p *Proxy) ListenAndServe(ctx context.Context) error {
	p.httpServerMu.Lock()
	if p.httpServer != nil {
		srv := p.httpServer
		p.httpServerMu.Unlock()
		return fmt.Errorf("proxy: server already running on %s", srv.Addr)
	}
	srv := &http.Server{Addr: p.opts.Addr, Handler: p.Handler()}
	p.httpServer = srv
	p.httpServerMu.Unlock()
	defer func() {
		p.httpServerMu.Lock()
		if p.httpServer == srv {
			p.httpServer = nil
		}
		p.httpServerMu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the embedded HTTP server if it is running.
func (p *Proxy) Shutdown(ctx context.Context) error {
	p.httpServerMu.Lock()
	srv := p.httpServer
	p.httpServer = nil
	p.httpServerMu.Unlock()
	if srv == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Shutdown(ctx)
}

func (p *Proxy) mountHandler() http.Handler {
	var handler http.Handler = p.streamHandler
	if len(p.opts.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: p.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"*"},
		}).Handler(handler)
	}
	path := p.opts.Path
	if path == "" {
		return handler
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	if !strings.HasSuffix(path, "/") {
		mux.Handle(path+"/", handler)
	}
	return mux
}
