// Package floor implements the canonical floor label grammar shared by
// every process in the simulation: regular floors "1".."999" and basement
// floors "B1".."B99", with no floor zero.
package floor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fathomworks/multicar-elevator/internal/errs"
)

const (
	maxRegular  = 999
	maxBasement = 99
)

// Label is a parsed, validated floor label. The zero value is not a valid
// floor; always construct one through Parse.
type Label struct {
	numeric    int
	isBasement bool
}

// Numeric is the signed integer form used for all comparison and
// arithmetic: regular floor N maps to +N, basement N maps to -N.
func (l Label) Numeric() int { return l.numeric }

// IsBasement reports whether the label names a basement floor.
func (l Label) IsBasement() bool { return l.isBasement }

// String renders the label back to its canonical form.
func (l Label) String() string { return Format(l.numeric) }

// MarshalJSON renders the label as its canonical string form, so the
// dashboard's status feed shows "B2"/"14" rather than the unexported
// internal representation.
func (l Label) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

// FromNumeric builds a Label directly from its integer form. n must be
// nonzero and within the supported ranges; callers that accept untrusted
// input should use Parse instead.
func FromNumeric(n int) Label {
	return Label{numeric: n, isBasement: n < 0}
}

// Parse validates a floor label per the grammar in §1: non-empty, at most
// 3 digits after an optional "B" prefix, no leading zero, in range.
func Parse(s string) (Label, error) {
	if s == "" {
		return Label{}, errs.NewValidation("empty floor label", nil)
	}
	if len(s) > 4 { // "B" + up to 3 digits
		return Label{}, errs.NewValidation("floor label too long", nil).WithContext("label", s)
	}

	isBasement := false
	digits := s
	if s[0] == 'B' {
		isBasement = true
		digits = s[1:]
	}

	if digits == "" {
		return Label{}, errs.NewValidation("floor label has no digits", nil).WithContext("label", s)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return Label{}, errs.NewValidation("floor label has a leading zero", nil).WithContext("label", s)
	}
	if strings.ContainsAny(digits, "+-") {
		return Label{}, errs.NewValidation("floor label has a non-digit character", nil).WithContext("label", s)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return Label{}, errs.NewValidation("floor label is not numeric", err).WithContext("label", s)
	}
	if n == 0 {
		return Label{}, errs.NewValidation("floor zero does not exist", nil).WithContext("label", s)
	}

	if isBasement {
		if n > maxBasement {
			return Label{}, errs.NewValidation("basement floor out of range", nil).WithContext("label", s)
		}
		return Label{numeric: -n, isBasement: true}, nil
	}

	if n > maxRegular {
		return Label{}, errs.NewValidation("floor out of range", nil).WithContext("label", s)
	}
	return Label{numeric: n, isBasement: false}, nil
}

// Format renders an integer floor form back to its canonical label. It is
// the left inverse of Parse: Format(Parse(l).Numeric()) == l for every
// valid label l.
func Format(numeric int) string {
	if numeric < 0 {
		return "B" + strconv.Itoa(-numeric)
	}
	return strconv.Itoa(numeric)
}

// Compare orders two labels on their integer form: -1 if a < b, 0 if
// equal, 1 if a > b.
func Compare(a, b Label) int {
	switch {
	case a.numeric < b.numeric:
		return -1
	case a.numeric > b.numeric:
		return 1
	default:
		return 0
	}
}

// sign returns -1, 0 or 1 matching the sign of n.
func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// NextToward returns the floor label one step from current toward
// destination, or an error if that step would leave [lo, hi]. The candidate step never
// lands on the nonexistent floor zero: {-N, +N} has no 0, so a step from
// +1 toward a negative destination (or -1 toward a positive one) jumps
// straight across the boundary, matching §4.1's basement/ground crossing
// rule.
func NextToward(current, destination, lo, hi Label) (Label, error) {
	if current.numeric == destination.numeric {
		return current, nil
	}

	step := sign(destination.numeric - current.numeric)
	next := current.numeric + step
	if next == 0 {
		next += step // skip the nonexistent floor zero
	}

	candidate := FromNumeric(next)
	if Compare(candidate, lo) < 0 || Compare(candidate, hi) > 0 {
		return Label{}, errs.NewValidation("next floor is out of range", nil).
			WithContext("current", current.String()).
			WithContext("candidate", candidate.String())
	}
	return candidate, nil
}
