package proxy

import (
	"context"

	"github.com/mozilla-ai/mcpd-proxy/pkg/mcpd"
)

// eligibleServers resolves the set of servers that participate in the next
// aggregation. An explicit Options.Servers list is used verbatim as the
// candidate set (discovery is skipped); otherwise candidates come from the
// daemon. Either way a single health snapshot is consulted and only servers
// whose recorded status is exactly "ok" qualify; servers missing from the
// snapshot are excluded without being probed. Candidate order is preserved.
func (p *Proxy) eligibleServers(ctx context.Context) ([]string, error) {
	candidates := p.opts.Servers
	if len(candidates) == 0 {
		var err error
		candidates, err = p.daemon.ListServers(ctx)
		if err != nil {
			return nil, err
		}
	}

	health, err := p.daemon.ServerHealth(ctx)
	if err != nil {
		return nil, err
	}
	statusByName := make(map[string]mcpd.HealthStatus, len(health))
	for _, h := range health {
		statusByName[h.Name] = h.Status
	}

	eligible := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if statusByName[name] == mcpd.HealthStatusOK {
			eligible = append(eligible, name)
		}
	}
	return eligible, nil
}

// serversForAggregation is eligibleServers with directory failures degraded
// to an empty set. Aggregate listings never hard-fail on daemon trouble; the
// response just carries fewer items.
func (p *Proxy) serversForAggregation(ctx context.Context) []string {
	servers, err := p.eligibleServers(ctx)
	if err != nil {
		p.opts.Logger.Warn("could not resolve eligible servers", "error", err)
		return nil
	}
	return servers
}
