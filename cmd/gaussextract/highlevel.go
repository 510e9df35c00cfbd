package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/qcbatch/gaussextract/pkg/combine"
	"github.com/qcbatch/gaussextract/pkg/gparser"
)

func highKJCommand() *cli.Command {
	return &cli.Command{
		Name:  "high-kj",
		Usage: "Combine this directory's high-level single points with their parent directory's low-level records, compact kJ/mol table",
		Flags: highLevelFlags(),
		Action: highLevelAction("-highLevel-kJ", func(w *os.File, rows []combine.Combined) error {
			return writeHighLevelCompact(w, rows)
		}),
	}
}

func highAUCommand() *cli.Command {
	return &cli.Command{
		Name:  "high-au",
		Usage: "Combine this directory's high-level single points with their parent directory's low-level records, detailed Hartree table",
		Flags: highLevelFlags(),
		Action: highLevelAction("-highLevel-au", func(w *os.File, rows []combine.Combined) error {
			return writeHighLevelDetailed(w, rows)
		}),
	}
}

func highLevelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "t", Value: 298.15, Usage: "Temperature in Kelvin for the recomputed phase correction"},
		&cli.Float64Flag{Name: "c", Value: 1.0, Usage: "Concentration in mol/L for the recomputed phase correction"},
	}
}

// highLevelAction returns the shared discover-pairs/combine-all/write
// pipeline for both high-level commands; suffix names the output file and
// write renders the format-specific table.
func highLevelAction(suffix string, write func(w *os.File, rows []combine.Combined) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := resolveConfig(c)
		if err != nil {
			return fatalf("load config: %w", err)
		}
		dir, err := workingDir()
		if err != nil {
			return err
		}
		logger := newLogger(c, cfg)

		extensions := cfg.Analysis.LogExtensions
		if e := c.String("e"); e != "" && c.IsSet("e") {
			extensions = []string{e}
		}

		pairs, skipped, err := combine.DiscoverPairs(dir, extensions)
		if err != nil {
			return fatalf("high-level combine: %w", err)
		}
		if !c.Bool("q") {
			for _, s := range skipped {
				logger.Warning("high-level combine: %s has no partner in the parent directory, skipping", s)
			}
		}

		temperature := c.Float64("t")
		if !c.IsSet("t") {
			temperature = cfg.Analysis.Temperature
		}
		concentration := c.Float64("c")
		if !c.IsSet("c") {
			concentration = cfg.Analysis.ConcentrationM
		}

		pc := gparser.ParseContext{
			Temperature:    temperature,
			ConcentrationM: concentration,
		}

		rows, errs := combine.CombineAll(pairs, pc)
		sort.Slice(rows, func(i, j int) bool { return rows[i].FileName < rows[j].FileName })

		outPath := outputPath(dir, suffix+".results")
		f, err := os.Create(outPath)
		if err != nil {
			return fatalf("high-level combine: create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := write(f, rows); err != nil {
			return fatalf("high-level combine: write %s: %w", outPath, err)
		}

		if !c.Bool("q") {
			logger.Success("wrote %s (%d/%d pairs combined)", outPath, len(rows), len(pairs))
			for _, e := range errs {
				logger.Warning("%v", e)
			}
		}

		if len(rows) == 0 && len(pairs) > 0 {
			return fatalf("high-level combine: no pairs were successfully combined out of %d", len(pairs))
		}
		return nil
	}
}

// writeHighLevelCompact renders the kJ/mol shape: 1=Name, 2=G kJ/mol, 3=G
// a.u, 4=G eV, 5=LowFQ, 6=Status, 7=PhCorr, matching the source project's
// column layout for this command.
func writeHighLevelCompact(w *os.File, rows []combine.Combined) error {
	headers := []string{"Output name", "G kJ/mol", "G a.u.", "G eV", "LowFQ", "Status", "PhCorr"}
	widths := []int{53, 16, 16, 14, 12, 10, 8}
	if err := writeRow(w, widths, headers); err != nil {
		return err
	}
	for _, r := range rows {
		fields := []string{
			r.FileName,
			fmt.Sprintf("%.2f", r.GibbsKJMol),
			fmt.Sprintf("%.6f", r.GibbsHartree),
			fmt.Sprintf("%.6f", r.GibbsEV),
			fmt.Sprintf("%.2f", r.LowFreq),
			string(r.Status),
			string(r.Phase),
		}
		if err := writeRow(w, widths, fields); err != nil {
			return err
		}
	}
	return nil
}

// writeHighLevelDetailed renders the Hartree-unit shape: file name, E-high,
// E-low, ZPE, TC, TS, H, G, lowest frequency, phase-correction flag - every
// energy term that went into the recombination, for auditing a single
// result by hand.
func writeHighLevelDetailed(w *os.File, rows []combine.Combined) error {
	headers := []string{"Output name", "E-high", "E-low", "ZPE", "TC", "TS", "H", "G", "LowFQ", "PhCorr"}
	widths := []int{53, 16, 16, 14, 14, 14, 16, 16, 12, 8}
	if err := writeRow(w, widths, headers); err != nil {
		return err
	}
	for _, r := range rows {
		fields := []string{
			r.FileName,
			fmt.Sprintf("%.6f", r.EHigh),
			fmt.Sprintf("%.6f", r.ElectronicLow),
			fmt.Sprintf("%.6f", r.ZPE),
			fmt.Sprintf("%.6f", r.TC),
			fmt.Sprintf("%.6f", r.TS),
			fmt.Sprintf("%.6f", r.Enthalpy),
			fmt.Sprintf("%.6f", r.GibbsHartree),
			fmt.Sprintf("%.2f", r.LowFreq),
			string(r.Phase),
		}
		if err := writeRow(w, widths, fields); err != nil {
			return err
		}
	}
	return nil
}

// writeRow prints fields left-justified to the matching entry in widths,
// followed by a newline.
func writeRow(w *os.File, widths []int, fields []string) error {
	for i, f := range fields {
		if _, err := fmt.Fprintf(w, "%-*s", widths[i], f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
