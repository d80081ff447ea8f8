package proxy

import (
	"maps"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Namespaced capabilities carry their origin in _meta so downstream clients
// (and future routing shortcuts) can recover it without decoding the name.
const (
	metaKeyServer     = "mcpd-proxy.server"
	metaKeyNativeName = "mcpd-proxy.native_name"
	metaKeyNativeURI  = "mcpd-proxy.native_uri"
)

func (*Proxy) namespaceTool(server string, tool *mcp.Tool) *mcp.Tool {
	if tool == nil {
		return nil
	}
	clone := *tool
	clone.Name = NamespacedName(server, tool.Name)
	clone.Meta = withMeta(tool.Meta, map[string]any{
		metaKeyServer:     server,
		metaKeyNativeName: tool.Name,
	})
	return &clone
}

func (*Proxy) namespacePrompt(server string, prompt *mcp.Prompt) *mcp.Prompt {
	if prompt == nil {
		return nil
	}
	clone := *prompt
	clone.Name = NamespacedName(server, prompt.Name)
	clone.Meta = withMeta(prompt.Meta, map[string]any{
		metaKeyServer:     server,
		metaKeyNativeName: prompt.Name,
	})
	return &clone
}

func (*Proxy) namespaceResource(server string, resource *mcp.Resource) *mcp.Resource {
	if resource == nil {
		return nil
	}
	clone := *resource
	clone.URI = NamespacedURI(server, resource.URI)
	clone.Meta = withMeta(resource.Meta, map[string]any{
		metaKeyServer:    server,
		metaKeyNativeURI: resource.URI,
	})
	return &clone
}

func (*Proxy) namespaceResourceTemplate(server string, tpl *mcp.ResourceTemplate) *mcp.ResourceTemplate {
	if tpl == nil {
		return nil
	}
	clone := *tpl
	clone.URITemplate = NamespacedURI(server, tpl.URITemplate)
	clone.Meta = withMeta(tpl.Meta, map[string]any{
		metaKeyServer:    server,
		metaKeyNativeURI: tpl.URITemplate,
	})
	return &clone
}

func withMeta(base map[string]any, extras map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any)
	}
	for k, v := range extras {
		out[k] = v
	}
	return out
}
