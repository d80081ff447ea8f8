// Command mcpd-proxy serves one MCP server that aggregates every server
// managed by an mcpd daemon, over stdio or Streamable HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mozilla-ai/mcpd-proxy/pkg/mcpd"
	"github.com/mozilla-ai/mcpd-proxy/pkg/proxy"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "mcpd-proxy",
		Short:   "Expose every mcpd-managed MCP server through one MCP endpoint",
		Version: version,
		Long: `mcpd-proxy connects to a running mcpd daemon and presents all of its
healthy MCP servers as a single MCP server. Tool and prompt names are
prefixed with the owning server name ({server}__{name}); resource URIs
become mcpd://{server}/{uri}. Calls against those identifiers are routed
back to the right server through the daemon.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", mcpd.DefaultAddr, "mcpd daemon base address")
	flags.String("api-key", "", "bearer credential for the mcpd daemon API")
	flags.String("transport", "stdio", "client transport: stdio or http")
	flags.String("listen", ":8080", "listen address for the http transport")
	flags.String("path", "/mcp", "HTTP path for the Streamable endpoint")
	flags.StringSlice("servers", nil, "restrict aggregation to these servers (still health-filtered)")
	flags.StringSlice("allowed-origins", nil, "CORS allowed origins for the http transport")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	v.SetEnvPrefix("MCPD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(flags))

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	level, err := log.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", v.GetString("log-level"), err)
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "mcpd-proxy",
	})
	logger := slog.New(handler)

	daemon := mcpd.NewClient(&mcpd.ClientOptions{
		Addr:   v.GetString("addr"),
		APIKey: v.GetString("api-key"),
		Logger: logger,
	})

	p, err := proxy.New(daemon, &proxy.Options{
		Implementation: &mcp.Implementation{
			Name:    "mcpd-proxy",
			Title:   "mcpd Proxy",
			Version: version,
		},
		Servers:        v.GetStringSlice("servers"),
		Addr:           v.GetString("listen"),
		Path:           v.GetString("path"),
		AllowedOrigins: v.GetStringSlice("allowed-origins"),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch transport := v.GetString("transport"); transport {
	case "stdio":
		logger.Info("serving MCP over stdio", "daemon", v.GetString("addr"))
		if err := p.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case "http":
		opts := p.Options()
		logger.Info("serving Streamable MCP", "listen", opts.Addr, "path", opts.Path, "daemon", v.GetString("addr"))
		if err := p.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
	}
}
