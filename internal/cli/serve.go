package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/fabric-tint-mcp/internal/server"
)

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout (default)",
		Long: `Serve the fabric tools over the Model Context Protocol.

Requests are read from stdin, one JSON-RPC message per line, and responses
written to stdout. The server stops when stdin closes or on SIGINT/SIGTERM.
Configure it in your MCP client (e.g., Claude Desktop) as a stdio server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o)
		},
	}
}

func runServe(cmd *cobra.Command, o *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o.logger.Info("starting MCP server",
		"version", o.build.Version,
		"build_time", o.build.BuildTime,
		"commit", o.build.GitCommit)

	srv := server.New(
		server.WithLogger(o.logger.Named("server")),
		server.WithVersion(o.build.Version),
	)
	if err := srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		o.logger.Error("server stopped", "error", err)
		return err
	}
	o.logger.Info("stdin closed, shutting down")
	return nil
}
