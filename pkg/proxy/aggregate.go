package proxy

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// aggregate fans out fetch to every server concurrently, waits for all of
// them to settle, and flattens the successful results with rename applied to
// each item. A failing server contributes nothing and is logged at Warn; the
// aggregate itself never fails. Relative order is preserved: servers in the
// order given, items in the order the backend returned them.
func aggregate[T any](
	ctx context.Context,
	logger *slog.Logger,
	servers []string,
	fetch func(ctx context.Context, server string) ([]T, error),
	rename func(server string, item T) T,
) []T {
	if len(servers) == 0 {
		return []T{}
	}

	// One result slot per server; no shared state between branches.
	perServer := make([][]T, len(servers))
	g, ctx := errgroup.WithContext(ctx)
	for i, server := range servers {
		g.Go(func() error {
			items, err := fetch(ctx, server)
			if err != nil {
				logger.Warn("dropping server from aggregation", "server", server, "error", err)
				return nil
			}
			perServer[i] = items
			return nil
		})
	}
	// Branches only ever return nil; Wait is a join point.
	_ = g.Wait()

	merged := make([]T, 0)
	for i, server := range servers {
		for _, item := range perServer[i] {
			merged = append(merged, rename(server, item))
		}
	}
	return merged
}
