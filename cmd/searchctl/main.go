package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/builder-search/internal/bootstrap"
	"github.com/kirillkom/builder-search/internal/config"
	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "searchctl",
		Short:        "Operate the builder search pipeline from the command line",
		SilenceUsage: true,
	}
	root.AddCommand(searchCmd(), snapshotCmd())
	return root
}

func searchCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a search and print the response as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.SearchUC.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if !save {
				return nil
			}

			id, err := saveSnapshot(cmd.Context(), app, resp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "snapshot %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the response as a shareable snapshot")
	return cmd
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read stored snapshots",
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			view, err := app.SnapshotUC.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}

	var output string
	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a snapshot as an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer app.Close()

			if output == "" {
				output = fmt.Sprintf("snapshot-%s.xlsx", args[0])
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := app.SnapshotUC.Export(cmd.Context(), args[0], f); err != nil {
				_ = f.Close()
				_ = os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), output)
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default snapshot-<id>.xlsx)")

	cmd.AddCommand(get, export)
	return cmd
}

func openApp(ctx context.Context, search bool) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "searchctl", cfg.LogLevel))
	return bootstrap.New(ctx, cfg, bootstrap.Options{Search: search})
}

func saveSnapshot(ctx context.Context, app *bootstrap.App, resp *domain.SearchResponse) (string, error) {
	results, err := json.Marshal(resp.Results)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	report, err := json.Marshal(resp.Report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return app.SnapshotUC.Create(ctx, domain.SnapshotInput{
		Query:       resp.Query,
		Results:     results,
		AgentReport: report,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
