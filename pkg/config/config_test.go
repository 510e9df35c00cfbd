package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Analysis.Temperature != 298.15 {
		t.Errorf("Analysis.Temperature = %v, want 298.15", cfg.Analysis.Temperature)
	}
	if cfg.Analysis.ConcentrationM != 1.0 {
		t.Errorf("Analysis.ConcentrationM = %v, want 1.0", cfg.Analysis.ConcentrationM)
	}
	if len(cfg.Analysis.LogExtensions) == 0 {
		t.Error("Analysis.LogExtensions should have default values")
	}
	if cfg.Resources.MaxOpenFiles != 20 {
		t.Errorf("Resources.MaxOpenFiles = %d, want 20", cfg.Resources.MaxOpenFiles)
	}
	if cfg.Directories.DoneDirName != "done" {
		t.Errorf("Directories.DoneDirName = %s, want done", cfg.Directories.DoneDirName)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate cleanly: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gaussextract.toml")

	content := `
[analysis]
temperature = 310.0
concentration_m = 2.0

[resources]
workers = 8

[output]
format = "csv"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Analysis.Temperature != 310.0 {
		t.Errorf("Temperature = %v, want 310.0", cfg.Analysis.Temperature)
	}
	if cfg.Resources.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Resources.Workers)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Format = %s, want csv", cfg.Output.Format)
	}
	// Unset fields keep their defaults.
	if cfg.Directories.DoneDirName != "done" {
		t.Errorf("DoneDirName = %s, want default done", cfg.Directories.DoneDirName)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gaussextract.yaml")

	content := `
analysis:
  temperature: 273.15
output:
  format: csv
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Analysis.Temperature != 273.15 {
		t.Errorf("Temperature = %v, want 273.15", cfg.Analysis.Temperature)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Format = %s, want csv", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gaussextract.json")

	content := `{"analysis": {"temperature": 300.0}, "resources": {"workers": 4}}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Analysis.Temperature != 300.0 {
		t.Errorf("Temperature = %v, want 300.0", cfg.Analysis.Temperature)
	}
	if cfg.Resources.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Resources.Workers)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/gaussextract.toml"); err == nil {
		t.Error("Load() should error for a non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gaussextract.toml")
	if err := os.WriteFile(configPath, []byte("[analysis\ninvalid"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("Load() should error for invalid TOML")
	}
}

func TestLoadConfigMissingExplicitPathErrors(t *testing.T) {
	if _, err := LoadConfig(WithPath("/nonexistent/gaussextract.toml")); err == nil {
		t.Error("LoadConfig with WithPath should error when the file is missing")
	}
}

func TestLoadOrDefaultNoFilePresent(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrDefault()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Temperature != 298.15 {
		t.Errorf("Temperature = %v, want default 298.15", cfg.Analysis.Temperature)
	}
}

func TestLoadOrDefaultWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	content := "[analysis]\ntemperature = 350.0\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "gaussextract.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOrDefault()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Temperature != 350.0 {
		t.Errorf("Temperature = %v, want 350.0 from discovered file", cfg.Analysis.Temperature)
	}
}

func TestValidateAggregatesAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.Temperature = -1
	cfg.Analysis.ConcentrationM = 0
	cfg.Output.Format = "xml"
	cfg.Output.SortColumn = 999

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"temperature", "concentration_m", "format", "sort_column"} {
		if !contains(msg, want) {
			t.Errorf("validation error %q missing mention of %q", msg, want)
		}
	}
}

func TestWriteDefaultRefusesOverwriteWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gaussextract.toml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Fatal("expected error overwriting an existing file without force")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Fatalf("force overwrite should succeed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("generated default config should itself load cleanly: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("generated default config should validate cleanly: %v", err)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
