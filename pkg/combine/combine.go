// Package combine implements the two-tier energy combiner: it pairs a
// high-level single-point record (from the working directory) with its
// parent directory's low-level record of the same basename and derives a
// merged energy record, grounded on the source
// project's HighLevelEnergyCalculator (module_executor.cpp).
package combine

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qcbatch/gaussextract/internal/fileproc"
	"github.com/qcbatch/gaussextract/pkg/gparser"
	"github.com/qcbatch/gaussextract/pkg/record"
)

// gas-constant / standard-pressure / phase-scale constants duplicated from
// gparser so the combiner's phase-correction term matches the single-file
// parser's exactly.
const (
	gasConstant      = 8.314462618
	standardPressure = 101325.0
	phaseScale       = 0.0003808798033989866
)

// Combined is one row of the combined high-level report: the low-level
// record's identity columns plus energies recombined across both tiers.
type Combined struct {
	FileName     string
	EHigh        float64 // current-directory (high-level) electronic energy
	ElectronicLow float64 // parent directory's (low-level) electronic energy
	ZPE          float64
	TC           float64 // low-level thermal correction to enthalpy
	TS           float64 // low-level entropy term (TC - thermal correction to Gibbs)
	ThermalCorr  float64 // low-level thermal correction to Gibbs (etg - scf_low)
	GibbsHartree float64
	GibbsKJMol   float64
	GibbsEV      float64
	Enthalpy     float64 // high-level electronic + low-level thermal correction to enthalpy
	LowFreq      float64 // current-directory (high-level) file's lowest frequency
	Status       record.Status
	Phase        record.PhaseFlag
}

// Pair holds one matched (lowLevelPath, highLevelPath) basename pair ready
// for combination.
type Pair struct {
	LowLevelPath  string
	HighLevelPath string
}

// DiscoverPairs finds every output file directly under workDir and pairs it
// with a same-basename output file in the parent of workDir. A
// working-directory file with no parent-directory partner is skipped, not
// treated as an error, but is reported back in skipped so the caller can
// warn about it: the combine commands are meant to run from inside a
// subdirectory created for a single round of high-level single points, so a
// partial match is an ordinary result, not a silent one.
//
// DiscoverPairs fails only on the two preconditions the source project
// enforces before doing any work: the parent directory must exist, and the
// working directory must hold at least one file with a matching extension.
// Finding no partner for any of those files is not an error: it returns no
// pairs and reports every file in skipped.
func DiscoverPairs(workDir string, extensions []string) (pairs []Pair, skipped []string, err error) {
	parentDir := filepath.Dir(filepath.Clean(workDir))
	if info, statErr := os.Stat(parentDir); statErr != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("combine: parent directory %s does not exist", parentDir)
	}

	workFiles, err := listByExtension(workDir, extensions)
	if err != nil {
		return nil, nil, fmt.Errorf("combine: list %s: %w", workDir, err)
	}

	for _, wf := range workFiles {
		base := strings.TrimSuffix(filepath.Base(wf), filepath.Ext(wf))
		matched := false
		for _, ext := range extensions {
			candidate := filepath.Join(parentDir, base+ext)
			if _, statErr := os.Stat(candidate); statErr == nil {
				pairs = append(pairs, Pair{LowLevelPath: candidate, HighLevelPath: wf})
				matched = true
				break
			}
		}
		if !matched {
			skipped = append(skipped, wf)
		}
	}

	if len(workFiles) == 0 {
		return nil, nil, fmt.Errorf("combine: no files with a matching extension found under %s", workDir)
	}
	return pairs, skipped, nil
}

func listByExtension(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		for _, want := range extensions {
			if strings.EqualFold(ext, want) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}

// Combine parses both members of pair and derives a Combined row.
//
// Per the resolved derivation: the low-level electronic energy and the
// thermal corrections (ZPE, thermal-to-Gibbs, entropy term folded into the
// free energy) are carried from the low-level (parent-directory) record
// unchanged; the high-level electronic energy replaces the low-level one
// in the Gibbs and enthalpy sums, and the reaction-field phase correction
// is recomputed at the combiner's own temperature/concentration so a
// high-level single point run with a different solvent model than the
// optimization step is still handled correctly.
func Combine(pair Pair, pc gparser.ParseContext) (Combined, error) {
	lowRec, _, err := gparser.Parse(pair.LowLevelPath, pc)
	if err != nil {
		return Combined{}, fmt.Errorf("combine: parse low-level %s: %w", pair.LowLevelPath, err)
	}
	highRec, _, err := gparser.Parse(pair.HighLevelPath, pc)
	if err != nil {
		return Combined{}, fmt.Errorf("combine: parse high-level %s: %w", pair.HighLevelPath, err)
	}

	thermalDelta := lowRec.GibbsHartree - lowRec.Electronic
	gibbsHartree := highRec.Electronic + thermalDelta

	phase := record.PhaseNo
	if lowRec.Phase == record.PhaseYes {
		phase = record.PhaseYes
		// ConcentrationM is the user-facing mol/L value; the formula's log
		// term was derived against the source project's internal mol/m3
		// representation (context.concentration = conc * 1000).
		concentrationMolPerM3 := pc.ConcentrationM * 1000
		phaseCorr := gasConstant * pc.Temperature *
			math.Log(concentrationMolPerM3*gasConstant*pc.Temperature/standardPressure) *
			phaseScale / 1000
		// The parser has already added this same term to a non-zero
		// lowRec.GibbsHartree; take it out of thermalDelta so it stays the
		// plain etg - scf_low difference and the term is counted once.
		if lowRec.GibbsHartree != 0 {
			thermalDelta -= phaseCorr
		}
		gibbsHartree = highRec.Electronic + thermalDelta + phaseCorr
	}

	enthalpy := highRec.Electronic + lowRec.ThermalCorrEnthalpy

	return Combined{
		FileName:      record.TruncatedName(strings.TrimPrefix(pair.LowLevelPath, "./")),
		EHigh:         highRec.Electronic,
		ElectronicLow: lowRec.Electronic,
		ZPE:           lowRec.ZPE,
		TC:            lowRec.ThermalCorrEnthalpy,
		TS:            lowRec.ThermalCorrEnthalpy - thermalDelta,
		ThermalCorr:   thermalDelta,
		GibbsHartree:  gibbsHartree,
		GibbsKJMol:    record.GibbsToKJMol(gibbsHartree),
		GibbsEV:       record.GibbsToEV(gibbsHartree),
		Enthalpy:      enthalpy,
		LowFreq:       highRec.LowFreq,
		Status:        highRec.Status,
		Phase:         phase,
	}, nil
}

// CombineAll runs Combine over every pair concurrently (via
// fileproc.ForEachFile, keyed by the pair's index so pairs that share a
// path stay distinct), collecting per-pair failures, each reported under
// its high-level path, instead of aborting the whole batch on the first
// bad file.
func CombineAll(pairs []Pair, pc gparser.ParseContext) ([]Combined, []error) {
	keys := make([]string, len(pairs))
	for i := range pairs {
		keys[i] = strconv.Itoa(i)
	}

	results, procErrs := fileproc.ForEachFile(context.Background(), keys, func(key string) (Combined, error) {
		i, _ := strconv.Atoi(key)
		return Combine(pairs[i], pc)
	})

	var errs []error
	if procErrs != nil {
		for _, e := range procErrs.Errors {
			if i, convErr := strconv.Atoi(e.Path); convErr == nil {
				e.Path = pairs[i].HighLevelPath
			}
			errs = append(errs, e)
		}
	}
	return results, errs
}
