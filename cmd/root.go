// Package cmd holds the task-agents-host command tree. With no subcommand
// and a chrome-extension:// origin as its first argument the binary acts as
// the native messaging host, which is how the browser launches it.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/agents"
	"github.com/task-agents/native-host/internal/config"
	"github.com/task-agents/native-host/internal/diag"
	"github.com/task-agents/native-host/internal/history"
	"github.com/task-agents/native-host/internal/host"
	"github.com/task-agents/native-host/internal/manifest"
	"github.com/task-agents/native-host/internal/resolver"
)

// Metadata is stamped into the binary at build time.
type Metadata struct {
	Version string
	Commit  string
	Date    string
}

var metadata = Metadata{Version: "dev", Commit: "none", Date: "unknown"}

var rootCmd = &cobra.Command{
	Use:   "task-agents-host [origin]",
	Short: "Native messaging host for the Task Agents browser extension",
	Long: `Native messaging host for the Task Agents browser extension.

The browser starts this binary with the extension origin as its only
argument and exchanges length-prefixed JSON messages over stdin/stdout.
The subcommands run the same lookups from a terminal and install the
host manifest.

Examples:
  # Register the host for an extension
  task-agents-host install --extension-id abcdefghijklmnopabcdefghijklmnop

  # Find a file the way the extension would
  task-agents-host resolve file report.pdf

  # List agent templates
  task-agents-host agents list`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	RunE:              runRoot,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default $XDG_CONFIG_HOME/task-agents/host.toml)")
	rootCmd.PersistentFlags().String("log-file", "", "Diagnostic log file, overrides the configured one")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also print debug diagnostics to stderr")

	// Chrome on Windows appends --parent-window=<handle> after the origin.
	rootCmd.FParseErrWhitelist.UnknownFlags = true
}

// Execute runs the command tree.
func Execute(ctx context.Context, m Metadata) error {
	metadata = m
	return fang.Execute(ctx, rootCmd, fang.WithVersion(versionString()))
}

func versionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", metadata.Version, metadata.Commit, metadata.Date)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && strings.HasPrefix(args[0], manifest.OriginScheme) {
		diag.Debug(getRuntime(cmd).sink, "launched by browser", "origin", args[0], "args", args)
		return runServe(cmd, nil)
	}
	return cmd.Help()
}

type runtimeKey struct{}

// appRuntime is what every command needs once flags and configuration are
// resolved.
type appRuntime struct {
	configPath string
	cfg        *config.Config
	sink       diag.Sink
}

func loadRuntime(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	logFile, _ := cmd.Flags().GetString("log-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	min := diag.LevelWarn
	if verbose {
		min = diag.LevelDebug
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, runtimeKey{}, &appRuntime{
		configPath: configPath,
		cfg:        cfg,
		sink:       diag.Multi(diag.NewFileSink(cfg.LogFile), diag.NewStderrSink(min)),
	}))
	return nil
}

func getRuntime(cmd *cobra.Command) *appRuntime {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*appRuntime)
	if !ok {
		panic("runtime not loaded: command is missing the root PersistentPreRunE")
	}
	return rt
}

func (rt *appRuntime) resolver() *resolver.Resolver {
	opts := resolver.Options{
		FallbackDirectories: rt.cfg.FallbackDirectories,
		Deep: resolver.DepthFinder{
			FileDepth:   rt.cfg.FileDepth,
			FolderDepth: rt.cfg.FolderDepth,
		},
		Sink: rt.sink,
	}
	if rt.cfg.FastSearchEnabled() {
		opts.Fast = resolver.FastFinder{Timeout: rt.cfg.FastSearchTimeout.Duration}
	}
	return resolver.New(opts)
}

func (rt *appRuntime) catalog() *agents.Catalog {
	return &agents.Catalog{
		Root:       rt.cfg.AgentsRoot,
		Descriptor: rt.cfg.AgentDescriptor,
		Extension:  rt.cfg.AgentExtension,
		Sink:       rt.sink,
	}
}

func (rt *appRuntime) history() (*history.Store, error) {
	return history.NewStore(rt.cfg.HistoryFile, rt.cfg.HistoryLimit)
}

func (rt *appRuntime) host() (*host.Host, error) {
	store, err := rt.history()
	if err != nil {
		return nil, err
	}
	return host.New(host.Options{
		Resolver: rt.resolver(),
		Agents:   rt.catalog(),
		History:  store,
		Sink:     rt.sink,
	}), nil
}
