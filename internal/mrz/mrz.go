// Package mrz parses ICAO 9303 machine-readable zones from OCR output:
// TD1 (ID cards, three lines of 30), TD2 (two lines of 36) and TD3
// (passports, two lines of 44), with per-field check-digit validation.
package mrz

import (
	"errors"
	"strings"
)

// filler is the MRZ padding character.
const filler = '<'

// Nominal MRZ lengths once the lines are concatenated.
const (
	lengthTD1 = 90 // 3 x 30
	lengthTD2 = 72 // 2 x 36
	lengthTD3 = 88 // 2 x 44
)

// Detection tolerates a couple of OCR-dropped or -inserted characters
// around each nominal length.
const lengthSlack = 2

// ErrUnrecognized reports input whose length matches no MRZ format.
var ErrUnrecognized = errors.New("mrz: text does not match any known format")

// Format identifies the MRZ layout.
type Format string

const (
	FormatTD1 Format = "TD1"
	FormatTD2 Format = "TD2"
	FormatTD3 Format = "TD3"
)

// Data holds the fields extracted from an MRZ, plus the per-field
// check-digit verdicts. Dates keep their raw YYMMDD form; use ParseDate
// for calendar values. TD1 carries two optional fields (one per data
// line); TD2 and TD3 only the first.
type Data struct {
	Format         Format `json:"format"`
	DocumentType   string `json:"document_type"`
	IssuingCountry string `json:"issuing_country"`
	DocumentNumber string `json:"document_number"`
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	Nationality    string `json:"nationality"`
	BirthDate      string `json:"birth_date"`
	ExpiryDate     string `json:"expiry_date"`
	Sex            string `json:"sex"`
	OptionalData   string `json:"optional_data,omitempty"`
	OptionalData2  string `json:"optional_data_2,omitempty"`

	// Per-field check-digit verdicts, plus a named entry per failure.
	DocumentNumberValid bool     `json:"document_number_valid"`
	BirthDateValid      bool     `json:"birth_date_valid"`
	ExpiryDateValid     bool     `json:"expiry_date_valid"`
	ValidationErrors    []string `json:"validation_errors,omitempty"`
}

// Valid reports whether every per-field check digit verified.
func (d *Data) Valid() bool {
	return len(d.ValidationErrors) == 0
}

// verifyCheckDigit validates one field against its check character and
// records a named validation error on mismatch.
func (d *Data) verifyCheckDigit(name, field string, check byte) bool {
	ok := checkDigitValid(field, check)
	if !ok {
		d.ValidationErrors = append(d.ValidationErrors, name+" check digit mismatch")
	}
	return ok
}

// Parse extracts MRZ fields from concatenated MRZ text. The input is the
// output of AssembleLines: uppercase MRZ-alphabet characters only, lines
// joined top to bottom without separators. The format is detected from the
// total length; slightly short input is padded with fillers to the nominal
// length before fixed-offset extraction, so a dropped trailing character
// does not shift every field.
func Parse(text string) (*Data, error) {
	format, ok := detectFormat(text)
	if !ok {
		return nil, ErrUnrecognized
	}

	switch format {
	case FormatTD1:
		return parseTD1(pad(text, lengthTD1)), nil
	case FormatTD2:
		return parseTD2(pad(text, lengthTD2)), nil
	default:
		return parseTD3(pad(text, lengthTD3)), nil
	}
}

// detectFormat picks the layout from the concatenated length. TD1 (90) and
// TD3 (88) overlap within the slack; passports always start with 'P', which
// breaks the tie.
func detectFormat(text string) (Format, bool) {
	n := len(text)
	switch {
	case within(n, lengthTD2):
		return FormatTD2, true
	case within(n, lengthTD1) && within(n, lengthTD3):
		if strings.HasPrefix(text, "P") {
			return FormatTD3, true
		}
		if n >= lengthTD1 {
			return FormatTD1, true
		}
		return FormatTD3, true
	case within(n, lengthTD1):
		return FormatTD1, true
	case within(n, lengthTD3):
		return FormatTD3, true
	default:
		return "", false
	}
}

func within(n, nominal int) bool {
	return n >= nominal-lengthSlack && n <= nominal+lengthSlack
}

// pad extends short input with fillers and truncates long input so the
// fixed offsets line up.
func pad(text string, nominal int) string {
	if len(text) >= nominal {
		return text[:nominal]
	}
	return text + strings.Repeat(string(filler), nominal-len(text))
}

// parseTD1 extracts the three-line 30-column ID card layout.
//
//	line 1: type(2) country(3) number(9) check(1) optional(15)
//	line 2: birth(6) check(1) sex(1) expiry(6) check(1) nat(3) optional(11) composite(1)
//	line 3: names(30)
func parseTD1(text string) *Data {
	l1 := text[0:30]
	l2 := text[30:60]
	l3 := text[60:90]

	d := &Data{
		Format:         FormatTD1,
		DocumentType:   trimFiller(l1[0:2]),
		IssuingCountry: trimFiller(l1[2:5]),
		DocumentNumber: trimFiller(l1[5:14]),
		BirthDate:      trimFiller(l2[0:6]),
		Sex:            parseSex(l2[7]),
		ExpiryDate:     trimFiller(l2[8:14]),
		Nationality:    trimFiller(l2[15:18]),
		OptionalData:   trimFiller(l1[15:30]),
		OptionalData2:  trimFiller(l2[18:29]),
	}
	d.Surname, d.GivenNames = splitName(l3)

	d.DocumentNumberValid = d.verifyCheckDigit("document number", l1[5:14], l1[14])
	d.BirthDateValid = d.verifyCheckDigit("birth date", l2[0:6], l2[6])
	d.ExpiryDateValid = d.verifyCheckDigit("expiry date", l2[8:14], l2[14])
	return d
}

// parseTD2 extracts the two-line 36-column layout.
//
//	line 1: type(2) country(3) names(31)
//	line 2: number(9) check(1) nat(3) birth(6) check(1) sex(1) expiry(6) check(1) optional(7) composite(1)
func parseTD2(text string) *Data {
	l1 := text[0:36]
	l2 := text[36:72]

	d := &Data{
		Format:         FormatTD2,
		DocumentType:   trimFiller(l1[0:2]),
		IssuingCountry: trimFiller(l1[2:5]),
		DocumentNumber: trimFiller(l2[0:9]),
		Nationality:    trimFiller(l2[10:13]),
		BirthDate:      trimFiller(l2[13:19]),
		Sex:            parseSex(l2[20]),
		ExpiryDate:     trimFiller(l2[21:27]),
		OptionalData:   trimFiller(l2[28:35]),
	}
	d.Surname, d.GivenNames = splitName(l1[5:36])

	d.DocumentNumberValid = d.verifyCheckDigit("document number", l2[0:9], l2[9])
	d.BirthDateValid = d.verifyCheckDigit("birth date", l2[13:19], l2[19])
	d.ExpiryDateValid = d.verifyCheckDigit("expiry date", l2[21:27], l2[27])
	return d
}

// parseTD3 extracts the two-line 44-column passport layout.
//
//	line 1: type(2) country(3) names(39)
//	line 2: number(9) check(1) nat(3) birth(6) check(1) sex(1) expiry(6) check(1) personal(14) check(1) composite(1)
func parseTD3(text string) *Data {
	l1 := text[0:44]
	l2 := text[44:88]

	d := &Data{
		Format:         FormatTD3,
		DocumentType:   trimFiller(l1[0:2]),
		IssuingCountry: trimFiller(l1[2:5]),
		DocumentNumber: trimFiller(l2[0:9]),
		Nationality:    trimFiller(l2[10:13]),
		BirthDate:      trimFiller(l2[13:19]),
		Sex:            parseSex(l2[20]),
		ExpiryDate:     trimFiller(l2[21:27]),
		OptionalData:   trimFiller(l2[28:42]),
	}
	d.Surname, d.GivenNames = splitName(l1[5:44])

	d.DocumentNumberValid = d.verifyCheckDigit("document number", l2[0:9], l2[9])
	d.BirthDateValid = d.verifyCheckDigit("birth date", l2[13:19], l2[19])
	d.ExpiryDateValid = d.verifyCheckDigit("expiry date", l2[21:27], l2[27])
	return d
}

// splitName separates the name field on the double filler: primary
// identifier (surname) before it, secondary (given names) after, with
// single fillers standing for spaces.
func splitName(field string) (surname, given string) {
	field = strings.TrimRight(field, string(filler))
	surname, given, _ = strings.Cut(field, "<<")
	surname = strings.ReplaceAll(surname, string(filler), " ")
	given = strings.ReplaceAll(given, string(filler), " ")
	return strings.TrimSpace(surname), strings.TrimSpace(given)
}

func parseSex(c byte) string {
	switch c {
	case 'M':
		return "M"
	case 'F':
		return "F"
	default:
		return ""
	}
}

func trimFiller(s string) string {
	return strings.Trim(s, string(filler))
}
