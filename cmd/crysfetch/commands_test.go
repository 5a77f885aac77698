package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/crysfetch/internal/config"
	"github.com/kalambet/crysfetch/internal/mp/mptest"
	"github.com/kalambet/crysfetch/internal/store"
	"github.com/kalambet/crysfetch/internal/structure"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup; testing.T.Chdir needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

// resetCommandState restores flag-backed globals after a rootCmd run so
// tests stay independent of execution order.
func resetCommandState(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
		noColor = false
		generateCmd.Flags().Set("out", "")
		propertiesCmd.Flags().Set("output", "")
	})
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func testStructure(formula string) *structure.Structure {
	return &structure.Structure{
		Formula: formula,
		Lattice: structure.Cubic(4.2),
		Sites: []structure.Site{
			{Element: "Be", X: 0, Y: 0, Z: 0},
			{Element: "N", X: 0.5, Y: 0.5, Z: 0.5},
		},
	}
}

func TestFetchCommand_EndToEnd(t *testing.T) {
	resetCommandState(t)
	t.Setenv("CRYSFETCH_MP_API_KEY", "")

	srv := mptest.NewServer(t, "test-key")
	srv.Add("BeAlN2", mptest.Record{
		MaterialID: "mp-1234",
		Volume:     38.2,
		BandGap:    4.4,
		Structure:  testStructure("BeAlN2"),
	})

	dir := t.TempDir()
	structureDir := filepath.Join(dir, "structures")
	rawDir := filepath.Join(dir, "raw")
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
materials_project:
  api_key: test-key
  base_url: %s
  request_delay: 0s
  structure_dir: %s
paths:
  raw: %s
`, srv.URL(), structureDir, rawDir))

	rootCmd.SetArgs([]string{"fetch", "BeAlN2", "MgSiN2", "--config", cfgPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, err := os.ReadFile(filepath.Join(structureDir, "BeAlN2_fetched.cif"))
	if err != nil {
		t.Fatalf("reading fetched CIF: %v", err)
	}
	if !strings.Contains(string(fetched), "# material id: mp-1234\n") {
		t.Error("fetched CIF is missing the material id comment")
	}

	generated, err := os.ReadFile(filepath.Join(structureDir, "MgSiN2_generated.cif"))
	if err != nil {
		t.Fatalf("reading generated CIF: %v", err)
	}
	if !strings.Contains(string(generated), "# origin: prototype generator\n") {
		t.Error("generated CIF is missing the origin comment")
	}

	data, err := os.ReadFile(filepath.Join(rawDir, "processing_checkpoint.json"))
	if err != nil {
		t.Fatalf("reading checkpoint: %v", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		t.Fatalf("parsing checkpoint: %v", err)
	}
	if cp.Total != 2 {
		t.Errorf("checkpoint total = %d, want 2", cp.Total)
	}
	if len(cp.Completed) != 2 {
		t.Errorf("checkpoint completed = %v, want both formulas", cp.Completed)
	}
}

func TestFetchCommand_MissingAPIKey(t *testing.T) {
	resetCommandState(t)
	t.Setenv("CRYSFETCH_MP_API_KEY", "")
	chdir(t, t.TempDir())

	rootCmd.SetArgs([]string{"fetch", "BeAlN2"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q, want it to mention the missing API key", err.Error())
	}
}

func TestFetchCommand_NoFormulas(t *testing.T) {
	resetCommandState(t)
	t.Setenv("CRYSFETCH_MP_API_KEY", "")

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "materials_project:\n  api_key: test-key\n")

	rootCmd.SetArgs([]string{"fetch", "--config", cfgPath})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error when no formulas are given")
	}
	if !strings.Contains(err.Error(), "no formulas") {
		t.Errorf("error = %q, want it to mention missing formulas", err.Error())
	}
}

func TestGenerateCommand(t *testing.T) {
	resetCommandState(t)
	chdir(t, t.TempDir())

	outDir := filepath.Join(t.TempDir(), "structures")
	rootCmd.SetArgs([]string{"generate", "TiB2", "--out", outDir})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "TiB2_generated.cif")); err != nil {
		t.Errorf("expected generated CIF: %v", err)
	}
}

func TestGenerateCommand_BadFormulaStillExitsClean(t *testing.T) {
	resetCommandState(t)
	chdir(t, t.TempDir())

	outDir := filepath.Join(t.TempDir(), "structures")
	rootCmd.SetArgs([]string{"generate", "2N", "--out", outDir})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("reading output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no CIF files for an unparseable formula, got %d", len(entries))
	}
}

func TestPropertiesCommand(t *testing.T) {
	resetCommandState(t)
	t.Setenv("CRYSFETCH_MP_API_KEY", "")

	srv := mptest.NewServer(t, "test-key")
	srv.Add("BeAlN2", mptest.Record{
		MaterialID: "mp-1234",
		Volume:     38.2,
		BandGap:    4.4,
		Structure:  testStructure("BeAlN2"),
	})

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
materials_project:
  api_key: test-key
  base_url: %s
  request_delay: 0s
`, srv.URL()))
	outPath := filepath.Join(dir, "out", "dataset.csv")

	rootCmd.SetArgs([]string{"properties", "BeAlN2", "TiB2", "--config", cfgPath, "--output", outPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading dataset: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "formula,mp_id,volume,band_gap") {
		t.Errorf("header = %q, want it to start with the id columns", lines[0])
	}
	if !strings.HasPrefix(lines[1], "BeAlN2,mp-1234,") {
		t.Errorf("row = %q, want the found material id", lines[1])
	}
	if !strings.HasPrefix(lines[2], "TiB2,Unknown,") {
		t.Errorf("row = %q, want the Unknown placeholder", lines[2])
	}
}

func TestResolveFormulas(t *testing.T) {
	cfg := config.Config{Formulas: []string{"MgSiN2"}}

	got, err := resolveFormulas(cfg, []string{"BeAlN2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "BeAlN2" {
		t.Errorf("formulas = %v, want arguments to win", got)
	}

	got, err = resolveFormulas(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "MgSiN2" {
		t.Errorf("formulas = %v, want the config list", got)
	}

	_, err = resolveFormulas(config.Config{}, nil)
	if err == nil {
		t.Fatal("expected error when neither source has formulas")
	}
}

func TestParseDurationOr(t *testing.T) {
	if got := parseDurationOr("45s", time.Second); got != 45*time.Second {
		t.Errorf("parseDurationOr(45s) = %v, want 45s", got)
	}
	if got := parseDurationOr("", time.Second); got != time.Second {
		t.Errorf("parseDurationOr(empty) = %v, want the fallback", got)
	}
	if got := parseDurationOr("soon", time.Second); got != time.Second {
		t.Errorf("parseDurationOr(garbage) = %v, want the fallback", got)
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}
