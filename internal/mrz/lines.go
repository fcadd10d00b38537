package mrz

import (
	"sort"
	"strings"

	"github.com/ocula-id/ocula/internal/vision"
)

// minLineLength is the shortest run of MRZ-alphabet characters that counts
// as an MRZ line even without a filler character present.
const minLineLength = 20

// AssembleLines collects the recognized text lines that look like MRZ,
// ordered top to bottom by their vertical position, and concatenates them
// into one normalized string: whitespace stripped, the common O-for-0 OCR
// misread corrected, and everything outside the MRZ alphabet dropped.
func AssembleLines(lines []vision.TextLine) string {
	candidates := make([]vision.TextLine, 0, len(lines))
	for _, line := range lines {
		normalized := normalizeLine(line.Text)
		if !looksLikeMRZ(normalized) {
			continue
		}
		candidates = append(candidates, vision.TextLine{
			Text:             normalized,
			VerticalPosition: line.VerticalPosition,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].VerticalPosition < candidates[j].VerticalPosition
	})

	var sb strings.Builder
	for _, c := range candidates {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// normalizeLine uppercases, corrects the O/0 OCR substitution, and keeps
// only uppercase letters, digits and the filler.
func normalizeLine(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(text) {
		if r == 'O' {
			r = '0'
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == rune(filler) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// looksLikeMRZ accepts lines containing the filler character, or long runs
// composed entirely of the MRZ alphabet.
func looksLikeMRZ(normalized string) bool {
	if normalized == "" {
		return false
	}
	if strings.ContainsRune(normalized, rune(filler)) {
		return true
	}
	return len(normalized) >= minLineLength
}
