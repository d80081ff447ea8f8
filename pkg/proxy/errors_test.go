package proxy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpd-proxy/pkg/mcpd"
)

func TestTranslateToolErrorSetsIsError(t *testing.T) {
	res := translateToolError(errors.New("boom"))
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "boom")
}

func TestDiagnosticByKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "tool not found",
			err:  &mcpd.Error{Kind: mcpd.KindToolNotFound, Server: "time", Message: "no such tool"},
			want: []string{`Tool not found on server "time"`, "no such tool", "list tools again"},
		},
		{
			name: "server not found",
			err:  &mcpd.Error{Kind: mcpd.KindServerNotFound, Server: "gone"},
			want: []string{`Server "gone" is not configured`},
		},
		{
			name: "server unhealthy",
			err:  &mcpd.Error{Kind: mcpd.KindServerUnhealthy, Server: "flaky", Message: "health check timed out"},
			want: []string{`Server "flaky" is temporarily unavailable`, "Retry shortly"},
		},
		{
			name: "connection",
			err:  &mcpd.Error{Kind: mcpd.KindConnection, Message: "connection refused"},
			want: []string{"Cannot reach the mcpd daemon", "connection refused"},
		},
		{
			name: "authentication",
			err:  &mcpd.Error{Kind: mcpd.KindAuthentication, Message: "bad key"},
			want: []string{"Authentication with the mcpd daemon failed", "API key"},
		},
		{
			name: "timeout",
			err:  &mcpd.Error{Kind: mcpd.KindTimeout, Message: "deadline exceeded"},
			want: []string{"timed out", "deadline exceeded"},
		},
		{
			name: "unknown kind carries raw message",
			err:  &mcpd.Error{Kind: mcpd.ErrorKind(99), Message: "mystery"},
			want: []string{"Error: mystery"},
		},
		{
			name: "untyped error",
			err:  errors.New("plain failure"),
			want: []string{"Error: plain failure"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diagnostic(tt.err)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestDiagnosticToolExecutionFields(t *testing.T) {
	err := &mcpd.Error{
		Kind:    mcpd.KindToolExecution,
		Server:  "time",
		Message: "invalid arguments",
		Fields: []mcpd.FieldError{
			{Location: "timezone", Message: "unknown zone"},
			{Location: "format", Message: "must be RFC 3339"},
		},
	}
	got := diagnostic(err)
	assert.Contains(t, got, `Tool execution failed on server "time": invalid arguments`)
	assert.Contains(t, got, "\n- timezone: unknown zone")
	assert.Contains(t, got, "\n- format: must be RFC 3339")
}

func TestDiagnosticFormatErrors(t *testing.T) {
	err := fmt.Errorf("tool name %q: %w", "plain", ErrInvalidFormat)
	got := diagnostic(err)
	assert.Contains(t, got, "Invalid name")
	assert.Contains(t, got, NameSeparator)

	got = diagnostic(fmt.Errorf("uri %q: %w", "mcpd://server", ErrMissingPath))
	assert.Contains(t, got, "Invalid name")
	assert.Contains(t, got, URIScheme)
}

func TestDiagnosticWrappedDaemonError(t *testing.T) {
	inner := &mcpd.Error{Kind: mcpd.KindConnection, Message: "refused"}
	got := diagnostic(fmt.Errorf("calling tool: %w", inner))
	assert.Contains(t, got, "Cannot reach the mcpd daemon")
}
