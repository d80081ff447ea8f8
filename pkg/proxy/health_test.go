package proxy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-ai/mcpd-proxy/pkg/mcpd"
)

func TestEligibleServersFiltersByHealth(t *testing.T) {
	daemon := &fakeDaemon{
		listServers: func(context.Context) ([]string, error) {
			return []string{"alpha", "beta", "gamma"}, nil
		},
		serverHealth: func(context.Context) ([]mcpd.ServerHealth, error) {
			return []mcpd.ServerHealth{
				{Name: "alpha", Status: mcpd.HealthStatusOK},
				{Name: "beta", Status: mcpd.HealthStatusTimeout},
				{Name: "gamma", Status: mcpd.HealthStatusOK},
			}, nil
		},
	}
	p := newTestProxy(t, daemon, nil)

	servers, err := p.eligibleServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "gamma"}, servers)
}

func TestEligibleServersExplicitListSkipsDiscovery(t *testing.T) {
	daemon := &fakeDaemon{
		listServers: func(context.Context) ([]string, error) {
			t.Fatal("discovery should not run with an explicit server list")
			return nil, nil
		},
		serverHealth: func(context.Context) ([]mcpd.ServerHealth, error) {
			return []mcpd.ServerHealth{
				{Name: "time", Status: mcpd.HealthStatusOK},
				{Name: "fetch", Status: mcpd.HealthStatusUnreachable},
			}, nil
		},
	}
	p := newTestProxy(t, daemon, &Options{Servers: []string{"fetch", "time"}})

	servers, err := p.eligibleServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"time"}, servers, "explicit entries are still health filtered")
}

func TestEligibleServersExcludesMissingFromSnapshot(t *testing.T) {
	daemon := &fakeDaemon{
		serverHealth: func(context.Context) ([]mcpd.ServerHealth, error) {
			return []mcpd.ServerHealth{{Name: "known", Status: mcpd.HealthStatusOK}}, nil
		},
	}
	p := newTestProxy(t, daemon, &Options{Servers: []string{"known", "phantom"}})

	servers, err := p.eligibleServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"known"}, servers)
}

func TestEligibleServersPropagatesHealthFailure(t *testing.T) {
	daemon := &fakeDaemon{
		listServers: func(context.Context) ([]string, error) {
			return []string{"alpha"}, nil
		},
		serverHealth: func(context.Context) ([]mcpd.ServerHealth, error) {
			return nil, errors.New("daemon down")
		},
	}
	p := newTestProxy(t, daemon, nil)

	_, err := p.eligibleServers(context.Background())
	require.Error(t, err)
}

func TestServersForAggregationDegradesToEmpty(t *testing.T) {
	daemon := &fakeDaemon{
		listServers: func(context.Context) ([]string, error) {
			return nil, errors.New("daemon down")
		},
	}
	p := newTestProxy(t, daemon, nil)

	assert.Empty(t, p.serversForAggregation(context.Background()))
}
