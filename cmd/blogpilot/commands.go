package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/blogpilot/compose"
	"github.com/hazyhaar/blogpilot/pilot"
	"github.com/hazyhaar/blogpilot/sheet"
)

func newPublishCmd(a *app) *cobra.Command {
	var post pilot.Post
	var sheetPath string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Log in, fill the editor and save one post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sheetPath != "" {
				if post.Row == 0 {
					return fmt.Errorf("--row is required with --sheet")
				}
				p, err := pilot.PostFromSheet(a.cfg, sheetPath, post.Row)
				if err != nil {
					return err
				}
				post = p
			}

			p, err := a.pilot()
			if err != nil {
				return err
			}
			defer p.Close()

			rep, runErr := p.Publish(cmd.Context(), post)
			if rep != nil {
				if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&post.Title, "title", "", "post title")
	cmd.Flags().StringVar(&post.Body, "body", "", "post body")
	cmd.Flags().StringVar(&sheetPath, "sheet", "", "read the post from this workbook")
	cmd.Flags().IntVar(&post.Row, "row", 0, "workbook row (1-based, header included)")
	cmd.MarkFlagsMutuallyExclusive("sheet", "title")
	cmd.MarkFlagsMutuallyExclusive("sheet", "body")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var sheetPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a body for every workbook row that has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sheetPath == "" {
				sheetPath = a.cfg.Sheet.Path
			}
			gen, err := pilot.NewGenerator(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			res, err := pilot.FillSheet(cmd.Context(), gen, a.cfg, sheetPath, a.logger)
			if res != nil {
				if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&sheetPath, "sheet", "", "workbook path (default from config)")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	var titles []string
	var force bool

	cmd := &cobra.Command{
		Use:   "seed [path]",
		Short: "Create a posting workbook with a header row and titles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Sheet.Path
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := sheet.Read(path, pilot.SheetOptions(a.cfg)); err == nil {
					return fmt.Errorf("%s already exists; use --force to overwrite", path)
				}
			}
			if err := sheet.Seed(path, titles, pilot.SheetOptions(a.cfg)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created "+path)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&titles, "title", nil, "title to add (repeatable, default: sample titles)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing workbook")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var opts pilot.InspectOptions

	cmd := &cobra.Command{
		Use:   "inspect [url]",
		Short: "Survey a page and check every configured candidate list against it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.URL = args[0]
			}
			p, err := a.pilot()
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.Inspect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&opts.Login, "login", false, "log in before opening the page")
	cmd.Flags().BoolVar(&opts.Frame, "frame", false, "enter the editor frame before the survey")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "elements listed per role")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	var matches bool

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "Show stored runs, one run with its steps, or match statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pilot()
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmd.Context()
			switch {
			case matches:
				stats, err := p.Matches(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), stats)
			case len(args) == 1:
				run, err := p.Run(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), run)
			}
			runs, err := p.Runs(ctx, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "runs to list")
	cmd.Flags().BoolVar(&matches, "matches", false, "show which candidate resolved each step across runs")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the Gemini models available to the API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Compose.Backend != "gemini" {
				return fmt.Errorf("models: only the gemini backend can list models")
			}
			gen, err := pilot.NewGenerator(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			models, err := gen.(*compose.Gemini).Models(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), models)
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			p, err := a.pilot()
			if err != nil {
				return err
			}
			defer p.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           p.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			a.logger.Info("blogpilot: listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the run history as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pilot()
			if err != nil {
				return err
			}
			defer p.Close()

			srv := mcp.NewServer(&mcp.Implementation{Name: "blogpilot", Version: version}, nil)
			p.RegisterMCP(srv)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
