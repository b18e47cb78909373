package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/climatetrends/internal/chart"
	"github.com/TobiSchelling/climatetrends/internal/config"
	"github.com/TobiSchelling/climatetrends/internal/database"
	"github.com/TobiSchelling/climatetrends/internal/fetch"
	"github.com/TobiSchelling/climatetrends/internal/pipeline"
	"github.com/TobiSchelling/climatetrends/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "climatetrends",
	Short:        "Global climate indicator charts",
	Long:         "climatetrends downloads global temperature, CO2 and sea-level data, normalizes it, and draws trend charts.",
	Version:      version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetFlags(log.LstdFlags)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose || strings.EqualFold(cfg.Logging.Level, "DEBUG") {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), false)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("climatetrends", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/climatetrends/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to change data sources or output directories.")
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch -> normalize -> render",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), dryRun)
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

func runPipeline(ctx context.Context, dry bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fetcher := fetch.NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)
	producer := chart.NewProducer(cfg.Output.ChartsDir)

	var recorder pipeline.Recorder
	if !dry {
		db, err := openDB()
		if err != nil {
			log.Printf("Run history disabled: %v", err)
		} else {
			defer db.Close()
			recorder = db
		}
	}

	pipe := pipeline.New(cfg, fetcher, producer, recorder)

	var result *pipeline.Result
	if dry {
		result = pipe.DryRun()
	} else {
		result = pipe.Run(ctx)
	}

	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}

	if err := result.Err(); err != nil {
		return err
	}
	if !dry {
		fmt.Println("\nPipeline complete! Run 'climatetrends serve' to view the report.")
	}
	return nil
}

// --- status command ---

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		runs, err := db.GetRecentRuns(statusLimit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Database: %s\n", db.Path())
		fmt.Fprintf(out, "Runs: %d total, %d succeeded, %d failed\n", stats.TotalRuns, stats.SuccessfulRuns, stats.FailedRuns)
		if stats.LastSuccessAt != nil {
			fmt.Fprintf(out, "Last success: %s\n", stats.LastSuccessAt.Local().Format(time.DateTime))
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "\nNo runs yet. Run 'climatetrends' to fetch data and draw charts.")
			return nil
		}
		fmt.Fprintln(out)

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Started", "Duration", "Status", "Message"})
		for _, r := range runs {
			t.AppendRow(table.Row{
				r.ID,
				r.StartedAt.Local().Format(time.DateTime),
				r.Duration().Round(time.Millisecond),
				r.Status,
				r.Message,
			})
		}
		t.Render()

		latest := runs[0]
		datasets, err := db.GetDatasetStats(latest.ID)
		if err != nil || len(datasets) == 0 {
			return err
		}
		fmt.Fprintf(out, "\nDatasets in run %d:\n", latest.ID)
		dt := table.NewWriter()
		dt.SetOutputMirror(out)
		dt.SetStyle(table.StyleLight)
		dt.AppendHeader(table.Row{"Dataset", "Rows", "Years", "Skipped"})
		for _, d := range datasets {
			years := ""
			if d.Rows > 0 {
				years = fmt.Sprintf("%d-%d", d.FirstYear, d.LastYear)
			}
			dt.AppendRow(table.Row{d.Dataset, d.Rows, years, d.Skipped})
		}
		dt.Render()
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of runs to show")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, cfg.Output.ChartsDir, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	return database.OpenDir(cfg.GetDataDir())
}
