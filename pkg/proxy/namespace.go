package proxy

import (
	"errors"
	"fmt"
	"strings"
)

// Namespacing scheme: tool and prompt names are exposed downstream as
// {server}__{name}; resource URIs as mcpd://{server}/{uri} with the native
// URI kept verbatim after the authority, scheme and all.
const (
	// NameSeparator joins a server name and a capability name. Server names
	// are assumed not to contain it; capability names may (the split is on
	// the first occurrence only).
	NameSeparator = "__"

	// URIScheme prefixes every namespaced resource URI.
	URIScheme = "mcpd://"
)

var (
	// ErrInvalidFormat reports an identifier that does not follow the
	// namespacing scheme at all.
	ErrInvalidFormat = errors.New("invalid namespaced identifier")

	// ErrMissingPath reports a namespaced URI with no native URI after the
	// server authority.
	ErrMissingPath = errors.New("namespaced uri has no resource path")
)

// NamespacedName returns the downstream identifier for a server-local
// capability name. No validation is performed.
func NamespacedName(server, name string) string {
	return server + NameSeparator + name
}

// SplitName recovers the server and native name from a namespaced
// identifier. kind names the capability ("tool", "prompt") for diagnostics.
func SplitName(full, kind string) (server, name string, err error) {
	idx := strings.Index(full, NameSeparator)
	if full == "" || idx < 0 {
		return "", "", fmt.Errorf("%s name %q: %w", kind, full, ErrInvalidFormat)
	}
	return full[:idx], full[idx+len(NameSeparator):], nil
}

// NamespacedURI returns the downstream URI for a server-local resource URI.
// The native URI is placed verbatim after the authority, even when it
// carries its own scheme (mcpd://time/file:///readme.md is well-formed).
func NamespacedURI(server, uri string) string {
	return URIScheme + server + "/" + uri
}

// SplitURI recovers the server and native URI from a namespaced URI.
func SplitURI(uri string) (server, native string, err error) {
	rest, ok := strings.CutPrefix(uri, URIScheme)
	if !ok {
		return "", "", fmt.Errorf("resource uri %q: %w", uri, ErrInvalidFormat)
	}
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return "", "", fmt.Errorf("resource uri %q: %w", uri, ErrMissingPath)
	}
	server, native = rest[:idx], rest[idx+1:]
	if server == "" || native == "" {
		return "", "", fmt.Errorf("resource uri %q: %w", uri, ErrMissingPath)
	}
	return server, native, nil
}
