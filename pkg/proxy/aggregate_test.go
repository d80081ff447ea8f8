package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatePreservesOrder(t *testing.T) {
	servers := []string{"a", "b", "c"}
	got := aggregate(context.Background(), slog.New(slog.DiscardHandler), servers,
		func(_ context.Context, server string) ([]string, error) {
			return []string{server + "-1", server + "-2"}, nil
		},
		func(server, item string) string {
			return fmt.Sprintf("%s%s%s", server, NameSeparator, item)
		},
	)
	assert.Equal(t, []string{
		"a__a-1", "a__a-2",
		"b__b-1", "b__b-2",
		"c__c-1", "c__c-2",
	}, got)
}

func TestAggregateDropsFailingBranch(t *testing.T) {
	got := aggregate(context.Background(), slog.New(slog.DiscardHandler), []string{"good", "bad"},
		func(_ context.Context, server string) ([]int, error) {
			if server == "bad" {
				return nil, errors.New("backend exploded")
			}
			return []int{1}, nil
		},
		func(_ string, item int) int { return item },
	)
	assert.Equal(t, []int{1}, got)
}

func TestAggregateNoServers(t *testing.T) {
	got := aggregate(context.Background(), slog.New(slog.DiscardHandler), nil,
		func(context.Context, string) ([]string, error) {
			t.Fatal("fetch should not run without servers")
			return nil, nil
		},
		func(_, item string) string { return item },
	)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregateAllBranchesFail(t *testing.T) {
	got := aggregate(context.Background(), slog.New(slog.DiscardHandler), []string{"a", "b"},
		func(context.Context, string) ([]string, error) {
			return nil, errors.New("nope")
		},
		func(_, item string) string { return item },
	)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
