// Package textnorm implements the locale-aware string normalization used by
// every resolver stage.
//
// Two folding profiles exist. DisplayFold lowercases and tidies whitespace
// but keeps German diacritics, so the result can still be shown or spoken.
// MatchKey folds diacritics to ASCII (ä→ae, ß→ss) and reduces the input to
// space-separated [a-z0-9] tokens; all fuzzy comparisons run on match keys.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	umlauts = strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
		"ẞ", "ss",
	)
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Lower lowercases s using German casing rules.
func Lower(s string) string {
	// cases.Caser is stateful; one per call.
	return cases.Lower(language.German).String(s)
}

// DisplayFold lowercases, trims and collapses whitespace while keeping
// diacritics intact.
func DisplayFold(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(Lower(s), " "))
}

// MatchKey folds s into lowercase ASCII alphanumeric tokens joined by a
// single space. "Büro (OG)" becomes "buero og".
func MatchKey(s string) string {
	if s == "" {
		return ""
	}
	folded := umlauts.Replace(Lower(s))
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), folded)
	if err == nil {
		folded = stripped
	}
	return strings.TrimSpace(nonAlnum.ReplaceAllString(folded, " "))
}

// Slug is MatchKey with tokens joined by '-'.
func Slug(s string) string {
	return strings.ReplaceAll(MatchKey(s), " ", "-")
}

// ContainsWord reports whether needle occurs in haystack as a sequence of
// whole tokens. Both arguments must already be match keys.
func ContainsWord(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

var decimalWord = regexp.MustCompile(`(\d)\s*(?:komma|punkt)\s*(\d)`)

// NormalizeDecimalWords rewrites a spoken decimal separator between two
// digits to a comma: "21 komma 5" → "21,5". Other uses of the words are
// left alone.
func NormalizeDecimalWords(s string) string {
	return decimalWord.ReplaceAllString(s, "$1,$2")
}

var floorNames = []struct {
	re    *regexp.Regexp
	short string
}{
	{regexp.MustCompile(`(?i)\b(?:untergeschoss|kellergeschoss|souterrain)\b`), "ug"},
	{regexp.MustCompile(`(?i)\b(?:erdgeschoss|parterre)\b`), "eg"},
	{regexp.MustCompile(`(?i)\b(?:obergeschoss|erster stock|1\. stock|oberstes geschoss)\b`), "og"},
	{regexp.MustCompile(`(?i)\b(?:dachgeschoss|dachboden)\b`), "dg"},
}

// NormalizeFloor maps long floor names to their short tokens (ug, eg, og,
// dg). Matches are word bounded; "Erdgeschosswohnung" is left untouched.
func NormalizeFloor(s string) string {
	for _, f := range floorNames {
		s = f.re.ReplaceAllString(s, f.short)
	}
	return s
}
