// Package config implements the layered configuration file for batch
// runs: defaults, overridden by a discovered or explicit TOML/YAML/JSON
// file, in turn overridden by CLI flags (applied by the caller after
// LoadConfig returns). Grounded on the teacher project's koanf-based
// config.Load/FindConfigFile/LoadConfig pattern, generalized from its
// code-analysis fields to this domain's run settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gotoml "github.com/pelletier/go-toml"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/qcbatch/gaussextract/pkg/record"
)

// Config holds every setting a batch run can take from a file, in
// addition to its own CLI flags.
type Config struct {
	Analysis    AnalysisConfig    `koanf:"analysis" toml:"analysis"`
	Resources   ResourceConfig    `koanf:"resources" toml:"resources"`
	Directories DirectoryConfig   `koanf:"directories" toml:"directories"`
	Output      OutputConfig      `koanf:"output" toml:"output"`
}

// AnalysisConfig controls the thermodynamic assumptions applied while
// parsing each file.
type AnalysisConfig struct {
	Temperature        float64 `koanf:"temperature" toml:"temperature"`                 // Kelvin
	UseFileTemperature bool    `koanf:"use_file_temperature" toml:"use_file_temperature"` // prefer the file's own Temperature line
	ConcentrationM     float64 `koanf:"concentration_m" toml:"concentration_m"`         // mol/L, for the phase correction
	InputExtensions    []string `koanf:"input_extensions" toml:"input_extensions"`       // sibling input files, e.g. [".gjf", ".com"]
	LogExtensions      []string `koanf:"log_extensions" toml:"log_extensions"`           // output files to discover, e.g. [".log"]
	MaxFileSizeMB      int64   `koanf:"max_file_size_mb" toml:"max_file_size_mb"`       // 0 = no limit
}

// ResourceConfig controls the worker pool and memory governor.
type ResourceConfig struct {
	Workers       int    `koanf:"workers" toml:"workers"`               // 0 = derive from hardware/scheduler
	MemoryLimitMB uint64 `koanf:"memory_limit_mb" toml:"memory_limit_mb"` // 0 = derive from detected system RAM
	MaxOpenFiles  int    `koanf:"max_open_files" toml:"max_open_files"`
}

// DirectoryConfig names the relocation targets the mover/check commands
// create under the working directory.
type DirectoryConfig struct {
	DoneDirName    string `koanf:"done_dir" toml:"done_dir"`
	ErrorDirName   string `koanf:"error_dir" toml:"error_dir"`
	PCMDirName     string `koanf:"pcm_dir" toml:"pcm_dir"`
	ImaginaryDirName string `koanf:"imaginary_dir" toml:"imaginary_dir"`
}

// OutputConfig controls the report writer.
type OutputConfig struct {
	Format          string `koanf:"format" toml:"format"` // "text" or "csv"
	SortColumn      int    `koanf:"sort_column" toml:"sort_column"`
	DecimalPrecision int   `koanf:"decimal_precision" toml:"decimal_precision"`
	Quiet           bool   `koanf:"quiet" toml:"quiet"`
	Color           bool   `koanf:"color" toml:"color"`
	ShowErrorDetails bool  `koanf:"show_error_details" toml:"show_error_details"`
}

// DefaultConfig returns a Config with the same defaults the CLI falls
// back to when no flag or file overrides a field.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Temperature:     298.15,
			ConcentrationM:  1.0,
			InputExtensions: []string{".gjf", ".com"},
			LogExtensions:   []string{".log"},
			MaxFileSizeMB:   500,
		},
		Resources: ResourceConfig{
			Workers:      0,
			MemoryLimitMB: 0,
			MaxOpenFiles: 20,
		},
		Directories: DirectoryConfig{
			DoneDirName:      "done",
			ErrorDirName:     "errorJobs",
			PCMDirName:       "PCMMkU",
			ImaginaryDirName: "imaginary_freqs",
		},
		Output: OutputConfig{
			Format:           "text",
			SortColumn:       int(record.SortGibbsKJMol),
			DecimalPrecision: 2,
			Quiet:            false,
			Color:            true,
			ShowErrorDetails: true,
		},
	}
}

// Load reads path, selecting a koanf parser by its extension (defaulting
// to TOML when the extension is unrecognized), and unmarshals it onto a
// copy of DefaultConfig so unset fields keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches standard locations for a config file and
// returns its path, or "" if none is found.
func FindConfigFile() string {
	names := []string{"gaussextract.toml", "gaussextract.yaml", "gaussextract.yml", "gaussextract.json", ".gxrc.toml"}
	dirs := []string{".", ".gaussextract"}

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath pins an explicit config file path; LoadConfig errors if it
// does not exist instead of silently falling back to defaults.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// LoadResult is the outcome of LoadConfig: the resolved Config and the
// path it was loaded from (empty when defaults were used).
type LoadResult struct {
	Config *Config
	Source string
}

// LoadConfig resolves and validates a Config, searching standard
// locations when no explicit path is given via WithPath, and falling
// back to DefaultConfig when none is found.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var cfg *Config
	var source string
	var err error

	if o.path != "" {
		if _, statErr := os.Stat(o.path); os.IsNotExist(statErr) {
			return nil, fmt.Errorf("config file not found: %s", o.path)
		}
		cfg, err = Load(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", o.path, err)
		}
		source = o.path
	} else {
		source = FindConfigFile()
		if source == "" {
			cfg = DefaultConfig()
		} else {
			cfg, err = Load(source)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", source, err)
			}
		}
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("config validation failed: %w", validationErr)
	}
	return &LoadResult{Config: cfg, Source: source}, nil
}

// LoadOrDefault loads config from standard locations, or returns
// defaults when none is found. Unlike LoadConfig it never errors on a
// missing file; a present-but-invalid file still errors.
func LoadOrDefault() (*Config, error) {
	result, err := LoadConfig()
	if err != nil {
		if FindConfigFile() == "" {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return result.Config, nil
}

// Validate checks every field against its acceptable range, aggregating
// all failures with errors.Join instead of stopping at the first one so
// a user fixing a config file sees every problem in a single run.
func (c *Config) Validate() error {
	var errs []error

	if c.Analysis.Temperature <= 0 {
		errs = append(errs, errors.New("analysis.temperature must be positive"))
	}
	if c.Analysis.ConcentrationM <= 0 {
		errs = append(errs, errors.New("analysis.concentration_m must be positive"))
	}
	if c.Analysis.MaxFileSizeMB < 0 {
		errs = append(errs, errors.New("analysis.max_file_size_mb must be non-negative"))
	}
	if len(c.Analysis.LogExtensions) == 0 {
		errs = append(errs, errors.New("analysis.log_extensions must not be empty"))
	}

	if c.Resources.Workers < 0 {
		errs = append(errs, errors.New("resources.workers must be non-negative"))
	}
	if c.Resources.MaxOpenFiles < 1 {
		errs = append(errs, errors.New("resources.max_open_files must be at least 1"))
	}

	for name, dir := range map[string]string{
		"done_dir":      c.Directories.DoneDirName,
		"error_dir":     c.Directories.ErrorDirName,
		"pcm_dir":       c.Directories.PCMDirName,
		"imaginary_dir": c.Directories.ImaginaryDirName,
	} {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("directories.%s must not be empty", name))
		}
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "csv":
	default:
		errs = append(errs, fmt.Errorf("output.format must be \"text\" or \"csv\", got %q", c.Output.Format))
	}
	if c.Output.SortColumn != int(record.SortUnspecified) && !record.ValidSortColumn(c.Output.SortColumn) {
		errs = append(errs, fmt.Errorf("output.sort_column %d is not a recognized column", c.Output.SortColumn))
	}
	if c.Output.DecimalPrecision < 0 || c.Output.DecimalPrecision > 12 {
		errs = append(errs, errors.New("output.decimal_precision must be between 0 and 12"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WriteDefault writes a commented default config file in TOML form to
// path, grounded on the teacher's init command (which built its example
// config with github.com/pelletier/go-toml directly rather than through
// koanf, since koanf is a read-side loader with no built-in encoder).
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists (use force to overwrite)", path)
		}
	}

	tree, err := gotoml.TreeFromMap(map[string]interface{}{
		"analysis": map[string]interface{}{
			"temperature":          298.15,
			"use_file_temperature": false,
			"concentration_m":      1.0,
			"input_extensions":     []string{".gjf", ".com"},
			"log_extensions":       []string{".log"},
			"max_file_size_mb":     500,
		},
		"resources": map[string]interface{}{
			"workers":         0,
			"memory_limit_mb": 0,
			"max_open_files":  20,
		},
		"directories": map[string]interface{}{
			"done_dir":      "done",
			"error_dir":     "errorJobs",
			"pcm_dir":       "PCMMkU",
			"imaginary_dir": "imaginary_freqs",
		},
		"output": map[string]interface{}{
			"format":             "text",
			"sort_column":        int(record.SortGibbsKJMol),
			"decimal_precision":  2,
			"quiet":              false,
			"color":              true,
			"show_error_details": true,
		},
	})
	if err != nil {
		return fmt.Errorf("config: build default tree: %w", err)
	}

	data, err := tree.ToTomlString()
	if err != nil {
		return fmt.Errorf("config: render default tree: %w", err)
	}

	header := "# gaussextract configuration file.\n" +
		"# Generated by config.WriteDefault with the built-in default values.\n\n"

	if err := os.WriteFile(path, []byte(header+data), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
