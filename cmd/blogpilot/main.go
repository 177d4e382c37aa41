// Command blogpilot publishes blog posts through the web editor, fills post
// bodies from a workbook with a language model, and serves the run history.
//
// Usage:
//
//	blogpilot seed posting.xlsx                 # create a workbook with sample titles
//	blogpilot generate --sheet posting.xlsx     # fill empty bodies
//	blogpilot publish --sheet posting.xlsx --row 2
//	blogpilot publish --title "..." --body "..."
//	blogpilot inspect --login --frame           # survey the editor page
//	blogpilot runs [id]                         # show stored runs
//	blogpilot serve                             # JSON API over the run history
//	blogpilot mcp                               # MCP tools over stdio
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/blogpilot/pilot"
)

var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	storePath  string

	cfg    *pilot.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "blogpilot:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "blogpilot",
		Short:         "Publish blog posts through the web editor",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to blogpilot.yaml (default: built-in settings)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with credentials and API keys")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "run database (default from config, \"-\" disables)")

	root.AddCommand(
		newPublishCmd(a),
		newGenerateCmd(a),
		newSeedCmd(a),
		newInspectCmd(a),
		newRunsCmd(a),
		newModelsCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
	)
	return root
}

func (a *app) init() error {
	var level slog.Level
	switch a.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	cfg, err := pilot.LoadConfig(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) pilot() (*pilot.Pilot, error) {
	return pilot.New(a.cfg, pilot.Options{StorePath: a.storePath, Logger: a.logger})
}
