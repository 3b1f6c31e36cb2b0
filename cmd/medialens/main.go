package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"medialens/internal/charts"
	"medialens/internal/config"
	"medialens/internal/fetch"
	"medialens/internal/ingest"
	"medialens/internal/report"
	"medialens/internal/server"
	"medialens/internal/store"
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
	Use:     "medialens",
	Short:   "News tone dashboard",
	Long:    "Medialens tracks how favorably large US outlets cover recurring news topics and serves the aggregates as a local dashboard.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

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
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("medialens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/medialens/",
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
		fmt.Println("Edit it to point source_url at your dataset host.")
		return nil
	},
}

// --- fetch command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the dataset CSVs from the configured source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f := fetch.New(cfg.Dataset.SourceURL, cfg.Retry, 0)
		if err := f.DownloadAll(ctx, cfg); err != nil {
			return err
		}

		fmt.Printf("Downloaded %s and %s to %s\n",
			cfg.Dataset.ToneFile, cfg.Dataset.ShareFile, cfg.GetDataDir())
		fmt.Println("Run 'medialens import' to load them.")
		return nil
	},
}

// --- import command ---

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the dataset CSVs into the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := runImport(st, importForce)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Println("Dataset unchanged since the last import, nothing to do.")
			fmt.Println("Use --force to reimport anyway.")
			return nil
		}

		fmt.Printf("Imported %d measurements and %d share rows.\n\n", res.Measurements, res.Shares)
		fmt.Println("Tone file:")
		fmt.Printf("  Rows read: %d\n", res.ToneStats.RowsRead)
		fmt.Printf("  Measurements kept: %d\n", res.ToneStats.Kept)
		fmt.Printf("  Partial-year rows dropped: %d\n", res.ToneStats.DroppedPartialYear)
		fmt.Printf("  Blackout-day rows dropped: %d\n", res.ToneStats.DroppedBlackout)
		fmt.Printf("  Zero-volume pairs dropped: %d\n", res.ToneStats.DroppedZeroVolume)
		fmt.Printf("  Tones clipped: %d\n", res.ToneStats.ClippedTones)
		fmt.Println("\nShare file:")
		fmt.Printf("  Rows read: %d\n", res.ShareStats.RowsRead)
		fmt.Printf("  Rows kept: %d\n", res.ShareStats.Kept)
		fmt.Printf("  Rows without a share dropped: %d\n", res.ShareStats.DroppedNoShare)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "Reimport even when the files are unchanged")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a coverage report for the imported dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		out, err := report.Build(st, store.Filters{})
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

// --- export command ---

var (
	exportDir    string
	exportReport bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the dashboard charts to PNG files",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		dom, err := st.Domain()
		if err != nil {
			return err
		}
		shareOutlet := pick(cfg.Defaults.ShareOutlet, dom.Outlets)
		diveTopic := pick(cfg.Defaults.DiveTopic, dom.Topics)
		window := cfg.Defaults.Window

		r := charts.New(st)
		f := store.Filters{}
		toRender := []struct {
			name   string
			render func() ([]byte, error)
		}{
			{"tone.png", func() ([]byte, error) { return r.ToneLines(f, window) }},
			{"share.png", func() ([]byte, error) { return r.ShareArea(f, shareOutlet) }},
			{"dive.png", func() ([]byte, error) { return r.DiveTone(f, diveTopic, window) }},
			{"volume.png", func() ([]byte, error) { return r.VolumeBars(f, diveTopic) }},
			{"yearly.png", func() ([]byte, error) { return r.YearlyLines(f) }},
		}

		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
		for _, item := range toRender {
			data, err := item.render()
			if err != nil {
				return fmt.Errorf("rendering %s: %w", item.name, err)
			}
			target := filepath.Join(exportDir, item.name)
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			fmt.Printf("Wrote %s\n", target)
		}

		if exportReport {
			out, err := report.Build(st, f)
			if err != nil {
				return err
			}
			target := filepath.Join(exportDir, "report.md")
			if err := os.WriteFile(target, []byte(out), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			fmt.Printf("Wrote %s\n", target)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", ".", "Directory to write the files to")
	exportCmd.Flags().BoolVar(&exportReport, "report", false, "Also write a markdown coverage report")
}

// pick returns the configured name when the dataset has it, otherwise the
// first name the dataset does have.
func pick(want string, have []string) string {
	if slices.Contains(have, want) {
		return want
	}
	if len(have) > 0 {
		return have[0]
	}
	return ""
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		// Import whatever is already on disk so a fresh start is not blank.
		if _, err := os.Stat(cfg.ToneFilePath()); err == nil {
			if _, err := runImport(st, false); err != nil {
				log.Printf("initial import: %v", err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Server.RefreshSchedule != "" && cfg.Dataset.SourceURL != "" {
			c := cron.New()
			var refreshMu sync.Mutex
			_, err := c.AddFunc(cfg.Server.RefreshSchedule, func() {
				refreshMu.Lock()
				defer refreshMu.Unlock()
				if err := refresh(ctx, st); err != nil {
					log.Printf("scheduled refresh: %v", err)
				}
			})
			if err != nil {
				return fmt.Errorf("bad refresh schedule %q: %w", cfg.Server.RefreshSchedule, err)
			}
			c.Start()
			defer c.Stop()
			log.Printf("dataset refresh scheduled: %s", cfg.Server.RefreshSchedule)
		}

		fmt.Printf("Starting server at http://%s\n", cfg.Server.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, st, cfg)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the server on (overrides config)")
}

// refresh downloads the dataset and reimports it when the files changed.
func refresh(ctx context.Context, st *store.Store) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	f := fetch.New(cfg.Dataset.SourceURL, cfg.Retry, 0)
	if err := f.DownloadAll(ctx, cfg); err != nil {
		return err
	}
	_, err := runImport(st, false)
	return err
}

func runImport(st *store.Store, force bool) (*ingest.Result, error) {
	return ingest.New(st, cfg.ToneFilePath(), cfg.ShareFilePath()).Run(force)
}

func openStore() (*store.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.Open(filepath.Join(dataDir, "medialens.db"))
}
