package mrz

// checkWeights is the ICAO 9303 weighting cycle applied across a field.
var checkWeights = [3]int{7, 3, 1}

// charValue maps an MRZ character to its check-digit value: digits map to
// themselves, letters to their alphabet position plus ten (A=10 .. Z=35),
// and the filler to zero. Reports false for anything else.
func charValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	case c == filler:
		return 0, true
	default:
		return 0, false
	}
}

// ComputeCheckDigit computes the ICAO 9303 check digit for a field: the
// weighted character sum modulo ten, with weights cycling 7, 3, 1. Reports
// false when the field contains a character outside the MRZ alphabet.
func ComputeCheckDigit(field string) (int, bool) {
	sum := 0
	for i := 0; i < len(field); i++ {
		v, ok := charValue(field[i])
		if !ok {
			return 0, false
		}
		sum += v * checkWeights[i%3]
	}
	return sum % 10, true
}

// checkDigitValid verifies a field against its check character. The filler
// as check character stands for zero.
func checkDigitValid(field string, check byte) bool {
	expected, ok := ComputeCheckDigit(field)
	if !ok {
		return false
	}
	switch {
	case check == filler:
		return expected == 0
	case check >= '0' && check <= '9':
		return int(check-'0') == expected
	default:
		return false
	}
}
