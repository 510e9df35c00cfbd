package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/qcbatch/gaussextract/internal/progress"
	"github.com/qcbatch/gaussextract/pkg/logging"
	"github.com/qcbatch/gaussextract/pkg/orchestrator"
	"github.com/qcbatch/gaussextract/pkg/record"
	"github.com/qcbatch/gaussextract/pkg/report"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract thermodynamic quantities from every output file in the working directory",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "t", Value: 298.15, Usage: "Temperature in Kelvin (ignored if --use-file-temperature)"},
			&cli.BoolFlag{Name: "use-file-temperature", Usage: "Prefer each file's own Temperature line over -t"},
			&cli.Float64Flag{Name: "c", Value: 1.0, Usage: "Concentration in mol/L, for the phase-correction term"},
			&cli.IntFlag{Name: "col", Value: int(record.SortGibbsKJMol), Usage: "Sort column (see record.SortColumn)"},
			&cli.StringFlag{Name: "f", Value: "text", Usage: "Output format: text or csv"},
		},
		Action: extractAction,
	}
}

func extractAction(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return fatalf("load config: %w", err)
	}

	dir, err := workingDir()
	if err != nil {
		return err
	}

	logger := newLogger(c, cfg)

	temperature := c.Float64("t")
	if !c.IsSet("t") {
		temperature = cfg.Analysis.Temperature
	}
	concentration := c.Float64("c")
	if !c.IsSet("c") {
		concentration = cfg.Analysis.ConcentrationM
	}
	format := c.String("f")
	if !c.IsSet("f") {
		format = cfg.Output.Format
	}
	sortCol := record.SortColumn(c.Int("col"))
	if !c.IsSet("col") {
		sortCol = record.SortColumn(cfg.Output.SortColumn)
	} else if !record.ValidSortColumn(c.Int("col")) {
		return fatalf("extract: -col %d is not a recognized sort column", c.Int("col"))
	}

	var tracker *progress.Tracker
	opts := orchestrator.Options{
		Dir:                dir,
		Extensions:         []string{c.String("e")},
		MaxFileSizeMB:      c.Int64("max-file-size"),
		RequestedWorkers:   workerCount(c.String("nt")),
		MemoryLimitMB:      c.Uint64("memory-limit"),
		Temperature:        temperature,
		UseFileTemperature: c.Bool("use-file-temperature"),
		ConcentrationM:     concentration,
		InputExtensions:    cfg.Analysis.InputExtensions,
		Cancelled:          func() bool { return activeRunCtx != nil && activeRunCtx.cancelFlag.Requested() },
		OnProgress: func(done, total int) {
			if tracker == nil {
				return
			}
			tracker.Tick()
		},
	}

	total := 0
	if files, err := discoverWorkingFiles(c, dir); err == nil {
		total = len(files)
	}
	if !c.Bool("q") && total > 0 {
		tracker = progress.NewTracker("extracting", total)
	}

	start := time.Now()
	res, err := orchestrator.Run(opts)
	if tracker != nil {
		tracker.FinishSuccess()
	}
	if err != nil {
		return fatalf("extract: %w", err)
	}

	type pair struct {
		rec    record.Record
		bucket record.Bucket
	}
	pairs := make([]pair, 0, len(res.Items))
	for _, it := range res.Items {
		if it.Err == nil {
			pairs = append(pairs, pair{rec: it.Record, bucket: it.Verdict.Bucket})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return record.Less(pairs[i].rec, pairs[j].rec, sortCol)
	})

	records := make([]record.Record, len(pairs))
	buckets := make([]record.Bucket, len(pairs))
	for i, p := range pairs {
		records[i] = p.rec
		buckets[i] = p.bucket
	}

	// The RT·ln(cRT/P0) term the parser adds for scrf jobs, evaluated at
	// the base temperature and concentration (mol/L scaled to mol/m3).
	const gasConstant, standardPressure, phaseScale = 8.314462618, 101325.0, 0.0003808798033989866
	phaseCorr := gasConstant * temperature *
		math.Log(concentration*1000*gasConstant*temperature/standardPressure) * phaseScale / 1000
	phaseNote := fmt.Sprintf("%.6f Hartree at %.2f K", phaseCorr, temperature)

	tempNote := fmt.Sprintf("%.2f K (default)", temperature)
	if opts.UseFileTemperature {
		tempNote = "per-file (from output)"
	}

	meta := report.Meta{
		Version:         version,
		Author:          author,
		TemperatureNote: tempNote,
		ConcentrationM:  concentration,
		PhaseCorrNote:   phaseNote,
		Workers:         res.Workers,
		Processed:       len(records),
		Total:           len(res.Items),
		PeakMemoryMB:    res.PeakMemoryBytes / (1024 * 1024),
		Warnings:        res.Diagnostics.Warnings(),
		Errors:          res.Diagnostics.Errors(),
		GeneratedAt:     start,
	}

	if !cfg.Output.ShowErrorDetails && !c.Bool("show-details") {
		meta.Warnings = nil
		meta.Errors = nil
	}

	outPath := outputPath(dir, resultSuffix(format))
	f, err := os.Create(outPath)
	if err != nil {
		return fatalf("extract: create %s: %w", outPath, err)
	}
	defer f.Close()

	if format == "csv" {
		err = report.WriteCSV(f, meta, records)
	} else {
		err = report.WriteText(f, meta, records)
	}
	if err != nil {
		return fatalf("extract: write report: %w", err)
	}

	if !c.Bool("q") {
		logger.Success("wrote %s (%d/%d files processed)", outPath, len(records), len(res.Items))
		logging.NewSummary(records, buckets).Render(os.Stderr)
	}

	if len(records) == 0 && len(res.Items) > 0 {
		return fatalf("extract: no records were successfully produced out of %d files", len(res.Items))
	}
	return nil
}
