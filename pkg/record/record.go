// Package record defines the shared data model produced by the parsing and
// classification engine: the extracted Record, the classification Verdict,
// and the detected scheduler JobAllocation. The immutable ParseContext
// threaded through every worker is defined in pkg/gparser.
package record

// Status is the termination state derived from the two-gate check in the
// single-file parser.
type Status string

const (
	StatusDone   Status = "DONE"
	StatusUndone Status = "UNDONE"
	StatusError  Status = "ERROR"
)

// PhaseFlag reports whether the reaction-field (solvent) phase correction
// was observed and applied.
type PhaseFlag string

const (
	PhaseYes PhaseFlag = "YES"
	PhaseNo  PhaseFlag = "NO"
)

// Record holds the quantities extracted from a single output file.
//
// FileName is truncated to its last 53 characters for display; filesystem
// operations must always use FullPath instead.
type Record struct {
	FullPath    string
	FileName    string
	GibbsKJMol  float64
	LowFreq     float64
	GibbsHartree float64
	Nuclear     float64
	Electronic  float64
	ZPE         float64
	Status      Status
	Phase       PhaseFlag
	RoundCount  int

	// ThermalCorrEnthalpy is the raw "Thermal correction to Enthalpy" value,
	// needed (alongside ZPE and the Gibbs thermal correction already folded
	// into GibbsHartree) by the two-tier combiner's detailed report.
	ThermalCorrEnthalpy float64
}

// TruncatedName returns name's last 53 characters, matching the source
// project's display convention. Names of 53 characters or fewer are
// returned unchanged.
func TruncatedName(name string) string {
	const width = 53
	if len(name) <= width {
		return name
	}
	return name[len(name)-width:]
}

// HartreeToKJPerMol is the Hartree -> kJ/mol conversion factor used for
// every derived Gibbs energy in kJ/mol.
const HartreeToKJPerMol = 2625.5002

// GibbsToKJMol converts a Gibbs free energy expressed in Hartree to kJ/mol.
func GibbsToKJMol(hartree float64) float64 {
	return hartree * HartreeToKJPerMol
}

// HartreeToEVFactor is the Hartree -> electronvolt conversion factor (CODATA).
const HartreeToEVFactor = 27.211386245988

// GibbsToEV converts a Gibbs free energy expressed in Hartree to eV.
func GibbsToEV(hartree float64) float64 {
	return hartree * HartreeToEVFactor
}

// SortColumn enumerates the extract report's sortable columns. Column 0
// denotes "unspecified" and must be rejected at the CLI argument layer;
// the comparator itself treats it (and any other unrecognized value) as
// unsorted.
type SortColumn int

const (
	SortUnspecified SortColumn = 0
	SortFileName    SortColumn = 1
	SortGibbsKJMol  SortColumn = 2
	SortLowFreq     SortColumn = 3
	SortGibbsHartree SortColumn = 4
	SortNuclear     SortColumn = 5
	SortElectronic  SortColumn = 6
	SortZPE         SortColumn = 7
	SortRoundCount  SortColumn = 8
)

// ValidSortColumn reports whether col names a known, sortable column.
func ValidSortColumn(col int) bool {
	switch SortColumn(col) {
	case SortFileName, SortGibbsKJMol, SortLowFreq, SortGibbsHartree, SortNuclear, SortElectronic, SortZPE, SortRoundCount:
		return true
	default:
		return false
	}
}

// Less reports whether a should sort before b on the given column. An
// unrecognized column always returns false (no swap), matching the source
// comparator's default case; callers that need "unsorted" semantics for
// out-of-range columns should validate the column before sorting, not rely
// on this behavior to reject one.
func Less(a, b Record, col SortColumn) bool {
	switch col {
	case SortFileName:
		return a.FileName < b.FileName
	case SortGibbsKJMol:
		return a.GibbsKJMol < b.GibbsKJMol
	case SortLowFreq:
		return a.LowFreq < b.LowFreq
	case SortGibbsHartree:
		return a.GibbsHartree < b.GibbsHartree
	case SortNuclear:
		return a.Nuclear < b.Nuclear
	case SortElectronic:
		return a.Electronic < b.Electronic
	case SortZPE:
		return a.ZPE < b.ZPE
	case SortRoundCount:
		return a.RoundCount < b.RoundCount
	default:
		return false
	}
}
