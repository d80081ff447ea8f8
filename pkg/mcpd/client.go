package mcpd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultAddr is the daemon's default listen address.
const DefaultAddr = "http://localhost:8090"

const apiPrefix = "/api/v1"

// ClientOptions configure a Client.
type ClientOptions struct {
	// Addr is the daemon base address. Defaults to DefaultAddr.
	Addr string
	// APIKey is an optional bearer credential sent with every request.
	APIKey string
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
	// Logger receives structured diagnostics.
	Logger *slog.Logger
	// ServersTTL bounds how long the discovery response is cached.
	ServersTTL time.Duration
	// HealthTTL bounds how long the health snapshot is cached.
	HealthTTL time.Duration
	// MaxAttempts caps attempts for idempotent requests when the daemon is
	// unreachable. Mutating calls are never retried.
	MaxAttempts uint
}

func (o *ClientOptions) normalized() ClientOptions {
	if o == nil {
		o = &ClientOptions{}
	}
	opts := *o
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	opts.Addr = strings.TrimSuffix(opts.Addr, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ServersTTL <= 0 {
		opts.ServersTTL = 30 * time.Second
	}
	if opts.HealthTTL <= 0 {
		opts.HealthTTL = 5 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	return opts
}

// Client talks to one mcpd daemon. It is safe for concurrent use and should
// be constructed once and shared so the discovery and health caches are
// effective.
type Client struct {
	opts ClientOptions

	servers *ttlCell[[]string]
	health  *ttlCell[[]ServerHealth]
}

// NewClient builds a Client. Callers can pass nil options to talk to a
// daemon on the default loopback address without credentials.
func NewClient(opts *ClientOptions) *Client {
	options := opts.normalized()
	return &Client{
		opts:    options,
		servers: newTTLCell[[]string](options.ServersTTL),
		health:  newTTLCell[[]ServerHealth](options.HealthTTL),
	}
}

// ListServers returns the names of all servers configured in the daemon,
// served from cache when fresh.
func (c *Client) ListServers(ctx context.Context) ([]string, error) {
	if cached, ok := c.servers.get(); ok {
		return cached, nil
	}
	var body struct {
		Servers []struct {
			Name string `json:"name"`
		} `json:"servers"`
	}
	if err := c.get(ctx, apiPrefix+"/servers", "", &body); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(body.Servers))
	for _, s := range body.Servers {
		names = append(names, s.Name)
	}
	c.servers.put(names)
	return names, nil
}

// ServerHealth returns the daemon's health snapshot for every configured
// server, served from cache when fresh.
func (c *Client) ServerHealth(ctx context.Context) ([]ServerHealth, error) {
	if cached, ok := c.health.get(); ok {
		return cached, nil
	}
	records, err := c.fetchHealth(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RefreshHealth forces a health fetch, bypassing and repopulating the cache.
// This is the ping path: a failure here is surfaced, not swallowed.
func (c *Client) RefreshHealth(ctx context.Context) error {
	c.health.invalidate()
	_, err := c.fetchHealth(ctx)
	return err
}

func (c *Client) fetchHealth(ctx context.Context) ([]ServerHealth, error) {
	var body struct {
		Servers []ServerHealth `json:"servers"`
	}
	if err := c.get(ctx, apiPrefix+"/health/servers", "", &body); err != nil {
		return nil, err
	}
	c.health.put(body.Servers)
	return body.Servers, nil
}

// ListTools returns the tools exposed by one server.
func (c *Client) ListTools(ctx context.Context, server string) ([]*mcp.Tool, error) {
	var body struct {
		Tools []*mcp.Tool `json:"tools"`
	}
	if err := c.get(ctx, c.serverPath(server, "tools"), server, &body); err != nil {
		return nil, err
	}
	return body.Tools, nil
}

// ListPrompts returns the prompts exposed by one server.
func (c *Client) ListPrompts(ctx context.Context, server string) ([]*mcp.Prompt, error) {
	var body struct {
		Prompts []*mcp.Prompt `json:"prompts"`
	}
	if err := c.get(ctx, c.serverPath(server, "prompts"), server, &body); err != nil {
		return nil, err
	}
	return body.Prompts, nil
}

// ListResources returns the resources exposed by one server.
func (c *Client) ListResources(ctx context.Context, server string) ([]*mcp.Resource, error) {
	var body struct {
		Resources []*mcp.Resource `json:"resources"`
	}
	if err := c.get(ctx, c.serverPath(server, "resources"), server, &body); err != nil {
		return nil, err
	}
	return body.Resources, nil
}

// ListResourceTemplates returns the resource templates exposed by one server.
func (c *Client) ListResourceTemplates(ctx context.Context, server string) ([]*mcp.ResourceTemplate, error) {
	var body struct {
		ResourceTemplates []*mcp.ResourceTemplate `json:"resourceTemplates"`
	}
	if err := c.get(ctx, c.serverPath(server, "resources/templates"), server, &body); err != nil {
		return nil, err
	}
	return body.ResourceTemplates, nil
}

// CallTool invokes a tool on one server and returns the daemon's raw result
// as text. A nil args value is sent as an empty object.
func (c *Client) CallTool(ctx context.Context, server, tool string, args any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := c.post(ctx, c.serverPath(server, "tools/"+url.PathEscape(tool)+"/call"), server, args, KindToolNotFound)
	if err != nil {
		return "", err
	}
	// The daemon returns the tool output as a JSON value; bare strings are
	// unquoted, anything else passes through as its JSON text.
	var text string
	if jsonErr := json.Unmarshal(raw, &text); jsonErr == nil {
		return text, nil
	}
	return string(bytes.TrimSpace(raw)), nil
}

// ReadResource reads a resource from one server by its native URI. Text and
// blob contents both pass through opaquely.
func (c *Client) ReadResource(ctx context.Context, server, uri string) ([]*mcp.ResourceContents, error) {
	path := c.serverPath(server, "resources/read") + "?uri=" + url.QueryEscape(uri)
	var body struct {
		Contents []*mcp.ResourceContents `json:"contents"`
	}
	if err := c.get(ctx, path, server, &body); err != nil {
		return nil, err
	}
	return body.Contents, nil
}

// GetPrompt renders a prompt on one server.
func (c *Client) GetPrompt(ctx context.Context, server, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	if args == nil {
		args = map[string]string{}
	}
	raw, err := c.post(ctx, c.serverPath(server, "prompts/"+url.PathEscape(name)), server, map[string]any{"arguments": args}, KindUnknown)
	if err != nil {
		return nil, err
	}
	var result mcp.GetPromptResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Kind: KindUnknown, Server: server, Message: fmt.Sprintf("malformed prompt response: %v", err)}
	}
	return &result, nil
}

func (c *Client) serverPath(server, suffix string) string {
	return apiPrefix + "/servers/" + url.PathEscape(server) + "/" + suffix
}

// get performs an idempotent request, retrying while the daemon is
// unreachable. Typed API outcomes are permanent and returned immediately.
func (c *Client) get(ctx context.Context, path, server string, out any) error {
	attempts := 0
	operation := func() ([]byte, error) {
		attempts++
		raw, err := c.do(ctx, http.MethodGet, path, server, nil, KindServerNotFound)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) && !apiErr.retryable() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return raw, nil
	}
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 100 * time.Millisecond
	raw, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.opts.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.opts.Logger.Debug("retrying daemon request", "path", path, "attempt", attempts, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUnknown, Server: server, Message: fmt.Sprintf("malformed daemon response: %v", err)}
	}
	return nil
}

// post performs a mutating request exactly once.
func (c *Client) post(ctx context.Context, path, server string, payload any, notFound ErrorKind) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Server: server, Message: fmt.Sprintf("encoding request: %v", err)}
	}
	return c.do(ctx, http.MethodPost, path, server, body, notFound)
}

func (c *Client) do(ctx context.Context, method, path, server string, body []byte, notFound ErrorKind) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.opts.Addr+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Server: server, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError(err, server)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, server)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	return nil, c.apiError(resp.StatusCode, raw, server, notFound)
}

func transportError(err error, server string) *Error {
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Server: server, Message: err.Error()}
	}
	return &Error{Kind: KindConnection, Server: server, Message: err.Error()}
}

// apiError maps a non-2xx daemon response into the error taxonomy. The
// daemon's machine-readable code wins when present; the HTTP status is the
// fallback for older daemons.
func (c *Client) apiError(status int, raw []byte, server string, notFound ErrorKind) *Error {
	var body struct {
		Error  string       `json:"error"`
		Code   string       `json:"code"`
		Detail []FieldError `json:"detail"`
	}
	_ = json.Unmarshal(raw, &body)
	message := body.Error
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	kind := KindUnknown
	switch body.Code {
	case "tool_not_found":
		kind = KindToolNotFound
	case "tool_execution_error":
		kind = KindToolExecution
	case "server_not_found":
		kind = KindServerNotFound
	case "server_unhealthy":
		kind = KindServerUnhealthy
	case "unauthorized":
		kind = KindAuthentication
	case "timeout":
		kind = KindTimeout
	default:
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindAuthentication
		case http.StatusNotFound:
			kind = notFound
		case http.StatusServiceUnavailable:
			kind = KindServerUnhealthy
		case http.StatusGatewayTimeout:
			kind = KindTimeout
		case http.StatusUnprocessableEntity:
			kind = KindToolExecution
		}
	}
	return &Error{Kind: kind, Server: server, Message: message, Fields: body.Detail}
}
