// Package mcpd provides an HTTP client for the mcpd daemon's REST API. It
// covers server discovery, cached health snapshots, and per-server capability
// calls (tools, prompts, resources, resource templates), translating daemon
// responses and transport failures into a closed, typed error taxonomy that
// callers can match on. Importers construct a single Client at startup and
// share it across requests so that discovery and health caching pay off.
package mcpd
