package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt != DefaultDt {
		t.Errorf("expected dt %g, got %g", DefaultDt, cfg.Dt)
	}
	if cfg.MaxIterations != DefaultMaxIterations {
		t.Errorf("expected max iterations %d, got %d", DefaultMaxIterations, cfg.MaxIterations)
	}
	if cfg.Scheme != "gauss-seidel" {
		t.Errorf("unexpected default scheme %q", cfg.Scheme)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Scenario = "water"
	cfg.Tolerance = 1e-9
	cfg.Physics.FixedHead = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Scenario != "water" {
		t.Errorf("scenario not preserved: %q", loaded.Scenario)
	}
	if loaded.Tolerance != 1e-9 {
		t.Errorf("tolerance not preserved: %g", loaded.Tolerance)
	}
	if !loaded.Physics.FixedHead {
		t.Error("fixed_head not preserved")
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("scenario: gas\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Scenario != "gas" {
		t.Errorf("expected gas scenario, got %q", cfg.Scenario)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("unset field should keep default dt, got %g", cfg.Dt)
	}
}

func TestPresetsAreComplete(t *testing.T) {
	for scenario, presets := range Presets {
		for name, cfg := range presets {
			if cfg.Dt <= 0 || cfg.Steps <= 0 {
				t.Errorf("%s/%s has invalid stepping", scenario, name)
			}
			if cfg.Scenario != scenario {
				t.Errorf("%s/%s declares scenario %q", scenario, name, cfg.Scenario)
			}
		}
	}
}
