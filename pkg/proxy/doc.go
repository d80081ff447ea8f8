// Package proxy presents every MCP server managed by an mcpd daemon as one
// MCP server. Capability listings (tools, prompts, resources, resource
// templates) fan out concurrently to all healthy backends on each request
// and merge into a flat namespace prefixed by server name; calls against
// namespaced identifiers are decoded and routed back to the owning backend,
// with backend failures translated into structured, client-safe responses.
// One misbehaving backend never breaks the aggregate: its contribution is
// dropped and logged.
package proxy
