package appointment

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/laserowo/studio-manager/internal/httperr"
)

// ParseAmount reads prices written either way round: "150.50", "150,50",
// "1 200,00 zł", "1,200.00". Currency markers are ignored.
func ParseAmount(s string) (float64, error) {
	raw := s
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return 0, httperr.ParseError{Field: "amount", Value: raw}
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
	}
	if strings.Count(s, ",") > 0 || strings.Count(s, ".") > 1 {
		return 0, httperr.ParseError{Field: "amount", Value: raw}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, httperr.ParseError{Field: "amount", Value: raw}
	}
	return v, nil
}
