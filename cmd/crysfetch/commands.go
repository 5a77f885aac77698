package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/crysfetch/internal/config"
	"github.com/kalambet/crysfetch/internal/dataset"
	"github.com/kalambet/crysfetch/internal/fetch"
	"github.com/kalambet/crysfetch/internal/generate"
	"github.com/kalambet/crysfetch/internal/mp"
	"github.com/kalambet/crysfetch/internal/report"
	"github.com/kalambet/crysfetch/internal/store"
)

func initLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in config, using default", "value", value, "default", fallback, "error", err)
		return fallback
	}
	return d
}

func newMPClient(cfg config.Config) *mp.Client {
	mpc := cfg.MaterialsProject
	return mp.New(mp.Config{
		APIKey:        mpc.APIKey,
		BaseURL:       mpc.BaseURL,
		Timeout:       parseDurationOr(mpc.Timeout, 30*time.Second),
		MaxRetries:    mpc.MaxRetries,
		BackoffFactor: mpc.BackoffFactor,
		BatchSize:     mpc.BatchSize,
		RequestDelay:  parseDurationOr(mpc.RequestDelay, 10*time.Second),
	})
}

// resolveFormulas prefers command-line arguments over the config list.
func resolveFormulas(cfg config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cfg.Formulas) > 0 {
		return cfg.Formulas, nil
	}
	return nil, fmt.Errorf("no formulas given: pass them as arguments or list them under formulas in %s", config.DefaultPath)
}

// --- fetch ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [formula...]",
	Short: "Fetch crystal structures, generating prototypes on miss",
	Long: `Fetch crystal structures for chemical formulas.

Each formula is looked up in the Materials Project. Hits are saved as
CIF files; misses and failed requests fall back to a generated
prototype structure. Formulas come from arguments or, when none are
given, from the formulas list in the config file.

Examples:
  crysfetch fetch BeAlN2 MgSiN2
  crysfetch fetch --config configs/local.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
		initLogging(cfg.LogLevel)

		formulas, err := resolveFormulas(cfg, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.New(cfg.MaterialsProject.StructureDir, cfg.Paths.Raw)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "crysfetch version %s\n", version)
		printStep("Fetching %d structures...", len(formulas))

		orch := fetch.New(newMPClient(cfg), generate.New(), st, cfg.MaterialsProject.BatchSize)
		outcomes, err := orch.Run(ctx, formulas)
		if err != nil {
			return err
		}

		for _, o := range outcomes {
			if o.Succeeded() {
				printSuccess("%s (%s) -> %s", o.Formula, o.Source, o.Path)
			} else {
				printError("%s: %v", o.Formula, o.Err)
			}
		}

		return report.Write(os.Stdout, report.Build(outcomes, st.StructureDir()))
	},
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <formula>...",
	Short: "Generate prototype structures without querying the database",
	Long: `Generate prototype structures from chemical formulas alone.

No API key is needed. Each formula is matched against known prototype
templates (ABX2, AB3) and saved as a CIF file. Unmatched compositions
get a simple packing cell.

Examples:
  crysfetch generate BeAlN2
  crysfetch generate TiB2 MgSiN2 --out /tmp/structures`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		initLogging(cfg.LogLevel)

		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = cfg.MaterialsProject.StructureDir
		}

		st, err := store.New(outDir, cfg.Paths.Raw)
		if err != nil {
			return err
		}

		gen := generate.New()
		failed := 0
		for _, f := range args {
			s, err := gen.Generate(f)
			if err != nil {
				printError("%s: %v", f, err)
				failed++
				continue
			}
			path, err := st.SaveStructure(store.Record{Formula: f, Source: store.SourceGenerated, Structure: s})
			if err != nil {
				printError("%s: %v", f, err)
				failed++
				continue
			}
			printSuccess("%s -> %s", f, path)
		}
		if failed > 0 {
			printWarning("%d of %d formulas failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("out", "", "output directory (default: structure_dir from config)")
}

// --- properties ---

var propertiesCmd = &cobra.Command{
	Use:   "properties [formula...]",
	Short: "Build a CSV dataset of database and element properties",
	Long: `Build a CSV dataset for model training.

Each formula becomes one row: material id, volume, and band gap from
the Materials Project when found, plus tabulated element properties
for up to three sites ordered by electronegativity.

Examples:
  crysfetch properties BeAlN2 MgSiN2
  crysfetch properties --output /tmp/dataset.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
		initLogging(cfg.LogLevel)

		formulas, err := resolveFormulas(cfg, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rows, err := dataset.New(newMPClient(cfg)).Build(ctx, formulas)
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = filepath.Join(cfg.Paths.Processed, "enhanced_dataset.csv")
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating dataset file: %w", err)
		}
		if err := dataset.WriteCSV(f, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		printSuccess("Wrote %d rows to %s", len(rows), outPath)
		return nil
	},
}

func init() {
	propertiesCmd.Flags().String("output", "", "output CSV path (default: <paths.processed>/enhanced_dataset.csv)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path in use",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.DefaultPath
		}
		fmt.Println(path)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the crysfetch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crysfetch version %s\n", version)
	},
}
