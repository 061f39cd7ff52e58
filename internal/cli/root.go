// Package cli provides the command-line interface for fabric-tint-mcp.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// EnvLogLevel overrides the default of --log-level.
const EnvLogLevel = "FABRIC_MCP_LOG_LEVEL"

// BuildInfo is the version information injected at build time.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// String returns a human-readable version string.
func (b BuildInfo) String() string {
	return fmt.Sprintf("fabric-tint-mcp %s\n  Build time: %s\n  Git commit: %s\n  Go: %s %s/%s",
		b.Version, b.BuildTime, b.GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// options is shared by every subcommand.
type options struct {
	build    BuildInfo
	logLevel string
	logger   hclog.Logger
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand serves MCP on stdio, which is what MCP clients expect.
func NewRootCmd(build BuildInfo) *cobra.Command {
	o := &options{build: build, logger: hclog.NewNullLogger()}

	root := &cobra.Command{
		Use:   "fabric-tint-mcp",
		Short: "Photorealistic fabric recoloring over MCP",
		Long: `fabric-tint-mcp re-tints photographs of fabric toward a target color while
keeping the weave texture, shading and specular highlights of the original.

Without a subcommand it runs as an MCP server on stdin/stdout, exposing the
pipeline (preprocess, neutralize, auto-tune, recolor, adjust) as tools.
The recolor subcommand runs the same pipeline once from the command line.

Logs go to stderr. Set the level with --log-level or ` + EnvLogLevel + `.`,
		Version:      build.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(o.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			o.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o)
		},
	}

	defaultLevel := os.Getenv(EnvLogLevel)
	if defaultLevel == "" {
		defaultLevel = "warn"
	}
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", defaultLevel, "log level (trace, debug, info, warn, error, off)")

	root.SetVersionTemplate(build.String() + "\n")

	root.AddCommand(newServeCmd(o))
	root.AddCommand(newRecolorCmd(o))
	root.AddCommand(newVersionCmd(o))
	return root
}

// newLogger builds the root logger. stdout is reserved for MCP traffic and
// command results, so logs always go to w, normally stderr.
func newLogger(level string, w io.Writer) (hclog.Logger, error) {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "fabric-tint-mcp",
		Level:  lvl,
		Output: w,
	}), nil
}

func newVersionCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, build time, git commit and Go toolchain.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), o.build.String())
		},
	}
}
