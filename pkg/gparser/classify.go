package gparser

import (
	"fmt"
	"strings"

	"github.com/qcbatch/gaussextract/pkg/record"
	"github.com/qcbatch/gaussextract/pkg/tailread"
)

// tailWindowLines is the number of trailing lines inspected by the
// classifier, matching the source project's check_job_status (TAIL, 10).
const tailWindowLines = 10

// Classify derives a relocation-engine Verdict for path using the same
// priority order as the source project's check_job_status: completed
// takes precedence over generic error, which takes precedence over a
// solvent-model (PCM) failure, which takes precedence over the imaginary-
// frequency check used only by the dedicated imode command. A file with
// none of these signals is still Running.
func Classify(path string, inputExtensions []string) (record.Verdict, error) {
	verdict, err := classifyOnly(path)
	if err != nil {
		return record.Verdict{}, err
	}
	verdict.Siblings = findSiblings(path, inputExtensions)
	return verdict, nil
}

func classifyOnly(path string) (record.Verdict, error) {
	tail, err := tailread.Read(path, tailread.Tail, tailWindowLines, "")
	if err != nil {
		return record.Verdict{}, fmt.Errorf("gparser: classify %s: %w", path, err)
	}

	if strings.Contains(tail, "Normal") {
		return record.Verdict{Bucket: record.BucketCompleted}, nil
	}

	if diagnostic, ok := genericError(strings.Split(tail, "\n")); ok {
		return record.Verdict{Bucket: record.BucketGenericError, Diagnostic: diagnostic}, nil
	}

	full, err := tailread.Read(path, tailread.Full, 0, "")
	if err != nil {
		return record.Verdict{}, fmt.Errorf("gparser: classify %s: %w", path, err)
	}
	if strings.Contains(full, "failed in PCMMkU") {
		return record.Verdict{Bucket: record.BucketSolventModelNonConvergence, Diagnostic: "failed in PCMMkU"}, nil
	}

	if hasImaginaryFrequency(full) {
		return record.Verdict{Bucket: record.BucketImaginaryFrequency}, nil
	}

	return record.Verdict{Bucket: record.BucketRunning}, nil
}

// genericError reports whether the tail window contains a generic-error
// condition: at least one line containing "Error", and none of those
// error lines containing "Error on". The "Error on" phrase is an
// upstream-package quirk marking an informational message, not a true
// failure, and must not trigger reclassification. The diagnostic is the
// last matching "Error" line.
func genericError(lines []string) (string, bool) {
	var errorLines []string
	for _, line := range lines {
		if strings.Contains(line, "Error") {
			errorLines = append(errorLines, line)
		}
	}
	if len(errorLines) == 0 {
		return "", false
	}

	for _, line := range errorLines {
		if strings.Contains(line, "Error on") {
			return "", false
		}
	}

	return errorLines[len(errorLines)-1], true
}

// hasImaginaryFrequency reports whether any "Frequencies --" line in
// content carries a negative value.
func hasImaginaryFrequency(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "Frequencies") {
			continue
		}
		var acc accumulator
		extractFrequencies(line, &acc)
		if len(acc.negativeFreqs) > 0 {
			return true
		}
	}
	return false
}

// deriveVerdict builds a classification Verdict directly from the state
// gathered during the single forward pass in scan(), rather than
// reopening the file: the same priority order as Classify, but the tail
// window, PCM-failure flag, and frequency list are already at hand. Used
// by Parse, which needs both a full Record and a Verdict from one read;
// callers that need only a Verdict (the relocate/mover fast path) should
// call Classify instead.
func (a accumulator) deriveVerdict() record.Verdict {
	for _, line := range a.tailLines {
		if strings.Contains(line, "Normal") {
			return record.Verdict{Bucket: record.BucketCompleted}
		}
	}

	if diagnostic, ok := genericError(a.tailLines); ok {
		return record.Verdict{Bucket: record.BucketGenericError, Diagnostic: diagnostic}
	}

	if a.pcmFailureSeen {
		return record.Verdict{Bucket: record.BucketSolventModelNonConvergence, Diagnostic: "failed in PCMMkU"}
	}

	if len(a.negativeFreqs) > 0 {
		return record.Verdict{Bucket: record.BucketImaginaryFrequency}
	}

	return record.Verdict{Bucket: record.BucketRunning}
}
