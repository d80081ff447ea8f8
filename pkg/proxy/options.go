package proxy

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Options configure a Proxy instance.
type Options struct {
	// Implementation identifies the proxy's MCP server metadata.
	Implementation *mcp.Implementation
	// Servers optionally scopes aggregation to an explicit subset of the
	// daemon's servers. The subset is still filtered by health; listing it
	// explicitly only skips discovery.
	Servers []string
	// Addr controls the listen address used by ListenAndServe. Defaults to ":8080".
	Addr string
	// Path mounts the Streamable handler under a specific HTTP path.
	// Defaults to "/mcp".
	Path string
	// AllowedOrigins enables CORS on the Streamable handler when non-empty.
	AllowedOrigins []string
	// Streamable tweaks the Streamable HTTP handler behavior.
	Streamable mcp.StreamableHTTPOptions
	// Logger receives structured diagnostics.
	Logger *slog.Logger
}

func (o *Options) withDefaults() Options {
	if o == nil {
		o = &Options{}
	}
	opts := *o
	if opts.Implementation == nil {
		opts.Implementation = &mcp.Implementation{
			Name:    "mcpd-proxy",
			Title:   "mcpd Proxy",
			Version: "1.0.0",
		}
	} else {
		impl := *opts.Implementation
		opts.Implementation = &impl
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Path == "" {
		opts.Path = "/mcp"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}
