package scheduler

import (
	"strconv"
	"strings"
)

// splitNumberUnit splits a lowercased string like "2048", "4g", "8.5gb"
// into its leading numeric part and trailing unit letters (k/m/g/t, with
// an optional trailing 'b' stripped by the caller).
func splitNumberUnit(s string) (numStr, unit string, ok bool) {
	i := 0
	sawDigit := false
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			sawDigit = true
			i++
			continue
		}
		if c == '.' && sawDigit {
			i++
			continue
		}
		break
	}
	if !sawDigit {
		return "", "", false
	}
	return s[:i], s[i:], true
}

func cleanUnit(u string) string {
	u = strings.TrimSuffix(u, "b")
	return u
}

// ParseSLURMMemory parses a SLURM memory string (SLURM_MEM_PER_NODE /
// SLURM_MEM_PER_CPU). SLURM's default unit is MB; 'k' converts down to MB,
// 'g'/'t' convert up.
func ParseSLURMMemory(s string) uint64 {
	if s == "" {
		return 0
	}
	s = strings.ToLower(strings.TrimSpace(s))
	numStr, unit, ok := splitNumberUnit(s)
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	unit = cleanUnit(unit)
	switch unit {
	case "", "m":
		return uint64(value)
	case "k":
		return uint64(value / 1024.0)
	case "g":
		return uint64(value * 1024)
	case "t":
		return uint64(value * 1024 * 1024)
	default:
		return uint64(value)
	}
}

// ParsePBSMemory parses a PBS memory string, where the default unit is
// bytes (not MB); the result is converted to MB.
func ParsePBSMemory(s string) uint64 {
	if s == "" {
		return 0
	}
	s = strings.ToLower(strings.TrimSpace(s))
	numStr, unit, ok := splitNumberUnit(s)
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	unit = cleanUnit(unit)
	bytes := value
	switch unit {
	case "k":
		bytes *= 1024
	case "m":
		bytes *= 1024 * 1024
	case "g":
		bytes *= 1024 * 1024 * 1024
	case "t":
		bytes *= 1024 * 1024 * 1024 * 1024
	}
	return uint64(bytes) / (1024 * 1024)
}

// ParseGeneralMemory parses a loosely-formatted memory string (SGE/LSF),
// defaulting to MB when no unit suffix is present.
func ParseGeneralMemory(s string) uint64 {
	if s == "" {
		return 0
	}
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	numStr, unit, ok := splitNumberUnit(s)
	if !ok {
		value, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return uint64(value)
	}
	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	unit = cleanUnit(unit)
	switch unit {
	case "":
		return uint64(value)
	case "k":
		return uint64(value / 1024)
	case "m":
		return uint64(value)
	case "g":
		return uint64(value * 1024)
	case "t":
		return uint64(value * 1024 * 1024)
	default:
		return uint64(value)
	}
}

// ParseCPUList normalizes a scheduler CPU-list string such as "4,4(x2)" or
// "1-4" into a total CPU count: parentheses and 'x' are stripped, the
// remainder is split on commas, and each token is either a plain count or
// an inclusive "a-b" range.
func ParseCPUList(s string) uint {
	if s == "" {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', 'x':
			return -1
		default:
			return r
		}
	}, s)

	var total uint
	for _, token := range strings.Split(cleaned, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.Contains(token, "-") {
			total += parseCPURange(token)
			continue
		}
		if v, err := strconv.ParseUint(token, 10, 64); err == nil {
			total += uint(v)
		}
	}
	return total
}

func parseCPURange(s string) uint {
	idx := strings.Index(s, "-")
	if idx < 0 {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return uint(v)
		}
		return 0
	}
	start, err1 := strconv.ParseUint(s[:idx], 10, 64)
	end, err2 := strconv.ParseUint(s[idx+1:], 10, 64)
	if err1 != nil || err2 != nil || end < start {
		return 0
	}
	return uint(end - start + 1)
}
