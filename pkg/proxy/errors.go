package proxy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mozilla-ai/mcpd-proxy/pkg/mcpd"
)

// translateToolError turns any failure on the tool-call path into a
// well-formed result with IsError set. Nothing on this path is allowed to
// surface as a protocol-level exception.
func translateToolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: diagnostic(err)}},
		IsError: true,
	}
}

// diagnostic maps the typed daemon error taxonomy onto stable, user-readable
// messages. The switch is exhaustive over the known kinds with a default arm
// carrying the raw message for kinds added by newer daemons.
func diagnostic(err error) string {
	if errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrMissingPath) {
		return fmt.Sprintf("Invalid name: %v. Expected %q between the server name and the capability name, or an %q resource URI.",
			err, NameSeparator, URIScheme)
	}

	var derr *mcpd.Error
	if !errors.As(err, &derr) {
		return fmt.Sprintf("Error: %v", err)
	}

	switch derr.Kind {
	case mcpd.KindToolNotFound:
		return fmt.Sprintf("Tool not found on server %q: %s. The tool may have been removed; list tools again to refresh the available set.",
			derr.Server, derr.Message)
	case mcpd.KindToolExecution:
		var b strings.Builder
		fmt.Fprintf(&b, "Tool execution failed on server %q: %s", derr.Server, derr.Message)
		for _, f := range derr.Fields {
			fmt.Fprintf(&b, "\n- %s: %s", f.Location, f.Message)
		}
		return b.String()
	case mcpd.KindServerNotFound:
		return fmt.Sprintf("Server %q is not configured in mcpd. It may have been removed; list tools again to see what is available.", derr.Server)
	case mcpd.KindServerUnhealthy:
		return fmt.Sprintf("Server %q is temporarily unavailable: %s. Retry shortly.", derr.Server, derr.Message)
	case mcpd.KindConnection:
		return fmt.Sprintf("Cannot reach the mcpd daemon: %s. Check that mcpd is running and the configured address is correct.", derr.Message)
	case mcpd.KindAuthentication:
		return fmt.Sprintf("Authentication with the mcpd daemon failed: %s. Check the configured API key.", derr.Message)
	case mcpd.KindTimeout:
		return fmt.Sprintf("The operation timed out: %s", derr.Message)
	default:
		return fmt.Sprintf("Error: %s", derr.Message)
	}
}
