package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
data:
  dir: /tmp/books
  symbols: [AAA, BBB]
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Environment != "development" {
		t.Fatalf("environment default: got %q", cfg.Environment)
	}
	if cfg.Returns.Bin != time.Minute {
		t.Fatalf("bin default: got %s", cfg.Returns.Bin)
	}
	if len(cfg.Returns.Horizons) != 2 || cfg.Returns.Horizons[0] != "1m" {
		t.Fatalf("horizons default: got %v", cfg.Returns.Horizons)
	}
	if cfg.PCA.MinObservations != 10 || cfg.PCA.MinExplainedVariance != 0.5 {
		t.Fatalf("pca defaults: got %+v", cfg.PCA)
	}
	if cfg.Backend.Type != "none" {
		t.Fatalf("backend default: got %q", cfg.Backend.Type)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("log defaults: got %+v", cfg.Log)
	}
}

func TestLoadMissingDataDir(t *testing.T) {
	if _, err := Load(writeConfig(t, "data:\n  symbols: [AAA, BBB]\n")); err == nil {
		t.Fatalf("missing data.dir must fail validation")
	}
}

func TestLoadSingleSymbolRejected(t *testing.T) {
	// Cross-impact needs at least two symbols.
	if _, err := Load(writeConfig(t, "data:\n  dir: /tmp/books\n  symbols: [AAA]\n")); err == nil {
		t.Fatalf("a single symbol must fail validation")
	}
}

func TestLoadHorizonMustBeBinMultiple(t *testing.T) {
	cfg := minimalConfig + `
returns:
  bin: 1m
  horizons: ["90s"]
`
	if _, err := Load(writeConfig(t, cfg)); err == nil {
		t.Fatalf("horizon not a multiple of bin must fail validation")
	}
}

func TestLoadBackendRequirements(t *testing.T) {
	kafkaCfg := minimalConfig + `
backend:
  type: kafka
`
	if _, err := Load(writeConfig(t, kafkaCfg)); err == nil {
		t.Fatalf("kafka backend without brokers must fail")
	}

	chCfg := minimalConfig + `
backend:
  type: clickhouse
`
	if _, err := Load(writeConfig(t, chCfg)); err == nil {
		t.Fatalf("clickhouse backend without host must fail")
	}

	badCfg := minimalConfig + `
backend:
  type: postgres
`
	if _, err := Load(writeConfig(t, badCfg)); err == nil {
		t.Fatalf("unknown backend type must fail")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/data/override")
	t.Setenv("SYMBOLS", "XXX,YYY,ZZZ")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.Data.Dir != "/data/override" {
		t.Fatalf("DATA_DIR override: got %q", cfg.Data.Dir)
	}
	if len(cfg.Data.Symbols) != 3 || cfg.Data.Symbols[2] != "ZZZ" {
		t.Fatalf("SYMBOLS override: got %v", cfg.Data.Symbols)
	}
}

func TestHorizonDurations(t *testing.T) {
	cfg := minimalConfig + `
returns:
  bin: 1m
  horizons: ["1m", "5m", "15m"]
`
	c, err := Load(writeConfig(t, cfg))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ds := c.HorizonDurations()
	want := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}
	if len(ds) != len(want) {
		t.Fatalf("horizons: want %v, got %v", want, ds)
	}
	for i := range want {
		if ds[i] != want[i] {
			t.Fatalf("horizon %d: want %s, got %s", i, want[i], ds[i])
		}
	}
}
