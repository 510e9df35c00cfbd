package combine

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qcbatch/gaussextract/pkg/gparser"
	"github.com/qcbatch/gaussextract/pkg/record"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const lowLevelLog = `Copyright banner
 SCF Done:  E(RHF) =  -100.000000     A.U. after 10 cycles
 Zero-point correction=               0.012000
 Thermal correction to Enthalpy=      0.025000
 Thermal correction to Gibbs Free Energy=    0.020000
 Sum of electronic and thermal Free Energies=          -99.980000
 Normal termination of Gaussian 16.
`

const highLevelLog = `Copyright banner
 SCF Done:  E(RHF) =  -100.500000     A.U. after 10 cycles
 Frequencies --   -12.340000    200.000000
 Normal termination of Gaussian 16.
`

const lowLevelScrfLog = `Copyright banner
 SCF Done:  E(RHF) =  -100.000000     A.U. after 10 cycles
 Zero-point correction=               0.012000
 Thermal correction to Enthalpy=      0.025000
 Thermal correction to Gibbs Free Energy=    0.020000
 Sum of electronic and thermal Free Energies=          -99.980000
 scrf=(pcm,solvent=water)
 Normal termination of Gaussian 16.
`

func TestDiscoverPairsRequiresParentDir(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "highlevel")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	writeLog(t, base, "mol.log", lowLevelLog)
	writeLog(t, work, "mol.log", highLevelLog)

	pairs, skipped, err := DiscoverPairs(work, []string{".log", ".out"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %v, want 1", pairs)
	}
	if pairs[0].LowLevelPath != filepath.Join(base, "mol.log") {
		t.Fatalf("low-level path = %s", pairs[0].LowLevelPath)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
}

func TestDiscoverPairsNoPartnersIsNotAnError(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "highlevel")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	writeLog(t, work, "only_here.log", highLevelLog)

	pairs, skipped, err := DiscoverPairs(work, []string{".log", ".out"})
	if err != nil {
		t.Fatalf("unexpected error when no pairs match: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("pairs = %v, want none", pairs)
	}
	if len(skipped) != 1 || !strings.HasSuffix(skipped[0], "only_here.log") {
		t.Fatalf("skipped = %v, want [.../only_here.log]", skipped)
	}
}

func TestDiscoverPairsReportsUnmatchedFiles(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "highlevel")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	writeLog(t, base, "mol.log", lowLevelLog)
	writeLog(t, work, "mol.log", highLevelLog)
	writeLog(t, work, "orphan.log", highLevelLog)

	pairs, skipped, err := DiscoverPairs(work, []string{".log", ".out"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %v, want 1", pairs)
	}
	if len(skipped) != 1 || !strings.HasSuffix(skipped[0], "orphan.log") {
		t.Fatalf("skipped = %v, want [.../orphan.log]", skipped)
	}
}

func TestCombineUsesHighLevelElectronicAndLowLevelCorrections(t *testing.T) {
	base := t.TempDir()
	lowPath := writeLog(t, base, "mol.log", lowLevelLog)
	highPath := writeLog(t, base, "mol_hl.log", highLevelLog)

	pc := gparser.ParseContext{Temperature: 298.15, ConcentrationM: 1.0}
	combined, err := Combine(Pair{LowLevelPath: lowPath, HighLevelPath: highPath}, pc)
	if err != nil {
		t.Fatal(err)
	}
	if combined.ElectronicLow != -100.0 {
		t.Fatalf("electronic low = %v", combined.ElectronicLow)
	}
	if combined.ZPE != 0.012 {
		t.Fatalf("zpe = %v", combined.ZPE)
	}
	wantGibbs := -100.5 + (-99.98 - -100.0)
	if diff := combined.GibbsHartree - wantGibbs; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("gibbs hartree = %v, want %v", combined.GibbsHartree, wantGibbs)
	}
	if combined.EHigh != -100.5 {
		t.Fatalf("e-high = %v", combined.EHigh)
	}
	if combined.TC != 0.025 {
		t.Fatalf("tc = %v", combined.TC)
	}
	wantTS := 0.025 - (-99.98 - -100.0)
	if diff := combined.TS - wantTS; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("ts = %v, want %v", combined.TS, wantTS)
	}
	wantEnthalpy := -100.5 + 0.025
	if diff := combined.Enthalpy - wantEnthalpy; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("enthalpy = %v, want %v (E-high + TC)", combined.Enthalpy, wantEnthalpy)
	}
	if combined.LowFreq != -12.34 {
		t.Fatalf("low freq = %v, want the high-level file's lowest frequency", combined.LowFreq)
	}
	if combined.Status != record.StatusDone {
		t.Fatalf("status = %v, want DONE", combined.Status)
	}
	if combined.Phase != record.PhaseNo {
		t.Fatalf("phase = %v, want NO (no scrf in either file)", combined.Phase)
	}
}

// TestCombinePhaseCorrectionConvertsMolarToMolPerCubicMeter pins the
// combiner's phase-correction term to the same mol/m3 conversion the
// single-file parser uses, so a high-level combine of an scrf job is not
// off by the M -> mol/m3 factor.
func TestCombinePhaseCorrectionConvertsMolarToMolPerCubicMeter(t *testing.T) {
	base := t.TempDir()
	lowPath := writeLog(t, base, "mol.log", lowLevelScrfLog)
	highPath := writeLog(t, base, "mol_hl.log", highLevelLog)

	pc := gparser.ParseContext{Temperature: 298.15, ConcentrationM: 1.0}
	combined, err := Combine(Pair{LowLevelPath: lowPath, HighLevelPath: highPath}, pc)
	if err != nil {
		t.Fatal(err)
	}
	if combined.Phase != record.PhaseYes {
		t.Fatalf("phase = %v, want YES", combined.Phase)
	}

	const (
		gasConstantR     = 8.314462618
		standardPressure = 101325.0
		phaseScale       = 0.0003808798033989866
	)
	concentrationMolPerM3 := pc.ConcentrationM * 1000
	wantPhaseCorr := gasConstantR * pc.Temperature *
		math.Log(concentrationMolPerM3*gasConstantR*pc.Temperature/standardPressure) *
		phaseScale / 1000
	thermalDelta := -99.98 - -100.0
	wantGibbs := -100.5 + thermalDelta + wantPhaseCorr
	if diff := combined.GibbsHartree - wantGibbs; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("gibbs hartree = %v, want %v (mol/m3-converted phase correction)", combined.GibbsHartree, wantGibbs)
	}

	// A naive un-converted formula (feeding the Molar value straight into
	// the log term) would differ from the correct result by a visible
	// margin; assert the two are NOT equal to guard against regressing to
	// that bug.
	wantGibbsIfUnconverted := -100.5 + thermalDelta + gasConstantR*pc.Temperature*
		math.Log(pc.ConcentrationM*gasConstantR*pc.Temperature/standardPressure)*phaseScale/1000
	if combined.GibbsHartree == wantGibbsIfUnconverted {
		t.Fatalf("gibbs hartree matches the unconverted (mol/L) formula; concentration must be scaled to mol/m3")
	}
}

func TestCombineAllCollectsPerPairErrors(t *testing.T) {
	base := t.TempDir()
	lowPath := writeLog(t, base, "mol.log", lowLevelLog)
	highPath := writeLog(t, base, "mol_hl.log", highLevelLog)

	pc := gparser.ParseContext{Temperature: 298.15, ConcentrationM: 1.0}
	pairs := []Pair{
		{LowLevelPath: lowPath, HighLevelPath: highPath},
		{LowLevelPath: filepath.Join(base, "missing.log"), HighLevelPath: highPath},
	}
	results, errs := CombineAll(pairs, pc)
	if len(results) != 1 {
		t.Fatalf("results = %v, want 1", results)
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want 1", errs)
	}
}
