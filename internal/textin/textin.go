// Package textin parses human-entered numbers and binary16 bit patterns.
package textin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/23skdu/longbow-half/internal/half"
)

// ErrEmpty is returned for input that is blank after normalization.
var ErrEmpty = errors.New("textin: empty input")

// minusSigns are the dash-like code points accepted as a leading sign.
var minusSigns = runes.In(&unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2010, Hi: 0x2015, Stride: 1}, // hyphen through horizontal bar
		{Lo: 0x2212, Hi: 0x2212, Stride: 1}, // minus sign
		{Lo: 0xfe63, Hi: 0xfe63, Stride: 1}, // small hyphen-minus
	},
})

// Normalize folds compatibility forms such as full-width digits to ASCII and
// maps dash-like runes to '-'. Whitespace is removed.
func Normalize(s string) string {
	t := transform.Chain(
		norm.NFKC,
		runes.Map(func(r rune) rune {
			if minusSigns.Contains(r) {
				return '-'
			}
			return r
		}),
		runes.Remove(runes.In(unicode.White_Space)),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return out
}

// ParseFloat parses s as a float64 after normalization. Values outside the
// float64 range parse to a signed infinity rather than failing.
func ParseFloat(s string) (float64, error) {
	n := Normalize(s)
	if n == "" {
		return 0, ErrEmpty
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("textin: parse %q: %w", s, err)
	}
	return f, nil
}

// ParseHalf parses s and narrows it to a Half with a single rounding.
func ParseHalf(s string) (half.Half, error) {
	f, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	return half.FromFloat64(f), nil
}

// ParseBits parses a 16-bit pattern. Prefixes 0x, 0o and 0b are honoured;
// bare digits are decimal.
func ParseBits(s string) (half.Half, error) {
	n := Normalize(s)
	if n == "" {
		return 0, ErrEmpty
	}
	v, err := strconv.ParseUint(n, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("textin: parse bits %q: %w", s, err)
	}
	return half.FromBits(uint16(v)), nil
}
