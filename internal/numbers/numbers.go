// Package numbers extracts target values ("21,5 Grad", "auf 40") from slots
// and free text.
package numbers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nadzzz/roomcall/internal/textnorm"
)

// Unknown is the placeholder the voice platform puts in a number slot it
// could not fill.
const Unknown = "?"

var (
	patterns = []*regexp.Regexp{
		regexp.MustCompile(`\bauf\s+(-?\d+(?:[.,]\d+)?)(?:\s*grad)?`),
		regexp.MustCompile(`(-?\d+(?:[.,]\d+)?)\s*grad\b`),
	}
	bare        = regexp.MustCompile(`(-?\d+(?:[.,]\d+)?)(\s*%)?`)
	cleanInt    = regexp.MustCompile(`^\d+$`)
	singleDigit = regexp.MustCompile(`^\d$`)
)

// FromSlot normalizes a structured number slot. It returns the display form
// (decimal comma) and the parsed value.
func FromSlot(raw string) (string, float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Unknown {
		return "", 0, false
	}
	display := strings.ReplaceAll(raw, ".", ",")
	v, err := strconv.ParseFloat(strings.ReplaceAll(display, ",", "."), 64)
	if err != nil {
		return "", 0, false
	}
	return display, v, true
}

// Extract returns the target number of a turn. A usable number slot wins;
// otherwise the free-text fields are joined and scanned for "auf N",
// "N grad" and a bare N not followed by '%', in that order. value is nil
// when nothing was found.
func Extract(slot string, fields ...string) (string, *float64) {
	if display, v, ok := FromSlot(slot); ok {
		return display, &v
	}
	text := textnorm.NormalizeDecimalWords(textnorm.DisplayFold(strings.Join(fields, " ")))
	if text == "" {
		return "", nil
	}
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return parse(m[1])
		}
	}
	for _, m := range bare.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		return parse(m[1])
	}
	return "", nil
}

func parse(s string) (string, *float64) {
	display, v, ok := FromSlot(s)
	if !ok {
		return "", nil
	}
	return display, &v
}

// MergeDecimalFromPercent repairs a temperature the voice platform split in
// two: number "21" and percent "5" become "21,5" when the context talks
// about degrees or temperature and not about percent. The percent is
// cleared in that case; otherwise both values pass through unchanged.
func MergeDecimalFromPercent(number, percent, context string) (string, string) {
	n := strings.TrimSpace(number)
	p := strings.TrimSpace(percent)
	if !cleanInt.MatchString(n) || !singleDigit.MatchString(p) {
		return number, percent
	}
	ctx := textnorm.MatchKey(context)
	temperature := strings.Contains(ctx, "grad") || strings.Contains(ctx, "temperatur")
	if !temperature || strings.Contains(ctx, "prozent") || strings.Contains(context, "%") {
		return number, percent
	}
	return n + "," + p, ""
}
