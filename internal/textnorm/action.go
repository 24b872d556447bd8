package textnorm

import (
	"regexp"
	"strings"
)

// Canonical verbs produced by CanonicalizeAction.
const (
	ActionExit       = "exit"
	ActionEnd        = "ende"
	ActionOn         = "ein"
	ActionOff        = "aus"
	ActionSet        = "stellen"
	ActionDrive      = "fahren"
	ActionOpen       = "oeffnen"
	ActionClose      = "schliessen"
	ActionStop       = "stopp"
	ActionShade      = "beschatten"
	ActionVentilate  = "lueften"
	ActionMiddle     = "mitte"
	ActionDim        = "dimmen"
	ActionReadStatus = "status"
)

// Power intents.
const (
	PowerOn  = "on"
	PowerOff = "off"
)

type wordSet map[string]struct{}

func words(ws ...string) wordSet {
	s := make(wordSet, len(ws))
	for _, w := range ws {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) anyOf(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := s[t]; ok {
			return true
		}
	}
	return false
}

func (s wordSet) has(w string) bool {
	_, ok := s[w]
	return ok
}

// Word lists are match keys.
var (
	exitWords   = words("exit", "verlassen", "raus", "schliesse skill")
	endWords    = words("ende", "beenden", "beende", "tschuess", "stopp alles")
	onWords     = words("ein", "an", "einschalten", "anschalten", "anmachen", "einmachen", "on", "aktivieren", "aktiviere")
	offWords    = words("aus", "ausschalten", "abschalten", "ausmachen", "off", "deaktivieren", "deaktiviere")
	setWords    = words("stellen", "stelle", "stell", "setzen", "setze", "setz", "einstellen", "aendern", "aendere", "veraendern", "regeln", "regle")
	driveWords  = words("fahren", "fahre", "fahr", "hochfahren", "runterfahren", "hoch", "runter")
	openWords   = words("oeffnen", "oeffne", "oeffnet", "auf", "aufmachen", "aufziehen")
	closeWords  = words("schliessen", "schliesse", "schliess", "zu", "zumachen", "zuziehen")
	stopWords   = words("stopp", "stop", "stoppen", "anhalten", "halt", "halte")
	shadeWords  = words("beschatten", "beschattung", "schatten", "abschatten")
	ventWords   = words("lueften", "luefte", "durchlueften")
	middleWords = words("mitte", "mittig", "halb", "halbe", "haelfte")
	dimWords    = words("dimmen", "dimme", "dimm", "heller", "dunkler", "gedimmt")
	statusWords = words("status", "zustand", "wie", "zeige", "zeig", "anzeigen", "lesen", "abfragen", "pruefen", "ist")

	setTarget = regexp.MustCompile(`\bauf\s+-?\d+(?:[.,]\d+)?\s*(?:grad|°)?`)
)

// CanonicalizeAction reduces the action slot, using the other slots as
// context, to exactly one canonical verb. Rules are tried in a fixed
// priority order and the first hit wins; exit, end, on and off outrank all
// later verbs so "Licht an machen" stays "ein". When nothing matches the
// lowercased raw action is returned.
func CanonicalizeAction(action, device, catchAll, object, room string) string {
	raw := NormalizeDecimalWords(DisplayFold(strings.Join([]string{action, device, catchAll, object, room}, " ")))
	key := MatchKey(raw)
	tokens := strings.Fields(key)
	phrases := append(tokens, bigrams(tokens)...)
	bare := MatchKey(action)
	percent := strings.Contains(raw, "%") || ContainsWord(key, "prozent")

	switch {
	case exitWords.anyOf(phrases):
		return ActionExit
	case endWords.anyOf(phrases):
		return ActionEnd
	case (bare == "1" || bare == "eins") && !percent:
		return ActionOn
	case onWords.anyOf(tokens):
		return ActionOn
	case offWords.anyOf(tokens):
		return ActionOff
	case (bare == "0" || bare == "null") && !percent:
		return ActionOff
	}

	switch {
	case setWords.anyOf(tokens), setTarget.MatchString(raw) && mentionsTemperature(raw):
		return ActionSet
	case driveWords.anyOf(tokens):
		return ActionDrive
	case openWords.anyOf(tokens):
		return ActionOpen
	case closeWords.anyOf(tokens):
		return ActionClose
	case stopWords.anyOf(tokens):
		return ActionStop
	case shadeWords.anyOf(tokens):
		return ActionShade
	case ventWords.anyOf(tokens):
		return ActionVentilate
	case middleWords.anyOf(tokens), isHalfPercent(action, object, catchAll):
		return ActionMiddle
	case dimWords.anyOf(tokens):
		return ActionDim
	case statusWords.anyOf(tokens):
		return ActionReadStatus
	}
	return DisplayFold(action)
}

var verbSets = []wordSet{exitWords, endWords, onWords, offWords, setWords, driveWords, openWords,
	closeWords, stopWords, shadeWords, ventWords, middleWords, dimWords, statusWords}

// StripActionWords returns the match key of s without the tokens that any
// verb rule reacts to, so "Kaffeemaschine einschalten" leaves
// "kaffeemaschine".
func StripActionWords(s string) string {
	var kept []string
	for _, tok := range strings.Fields(MatchKey(s)) {
		verb := false
		for _, set := range verbSets {
			if set.has(tok) {
				verb = true
				break
			}
		}
		if !verb {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

func mentionsTemperature(raw string) bool {
	return strings.Contains(raw, "grad") || strings.Contains(raw, "temperatur") || strings.Contains(raw, "°")
}

func isHalfPercent(fields ...string) bool {
	for _, f := range fields {
		switch strings.ReplaceAll(strings.TrimSpace(f), " ", "") {
		case "50%":
			return true
		}
	}
	return false
}

func bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

var roomTail = regexp.MustCompile(`^(?:(.*?)\s+)?(an|ein|aus|on|off|einschalten|ausschalten|anschalten|abschalten)[\s.!?,;]*$`)

// ExtractPowerFromRoomTail strips a trailing on/off word from a room phrase,
// as in "Büro aus", and returns the remaining room text with the power
// intent. Power is empty when the phrase has no such tail.
func ExtractPowerFromRoomTail(room string) (string, string) {
	trimmed := strings.TrimSpace(room)
	m := roomTail.FindStringSubmatch(Lower(trimmed))
	if m == nil {
		return trimmed, ""
	}
	power := PowerOff
	if onWords.has(m[2]) {
		power = PowerOn
	}
	// Lower keeps byte offsets for the German alphabet, so the prefix length
	// can be reused on the original text.
	if len(Lower(trimmed)) == len(trimmed) {
		return strings.TrimSpace(trimmed[:len(m[1])]), power
	}
	return strings.TrimSpace(m[1]), power
}

// PowerFromTokens returns hint when it is set, otherwise the first on or
// off word found across fields.
func PowerFromTokens(hint string, fields ...string) string {
	if hint != "" {
		return hint
	}
	for _, tok := range strings.Fields(MatchKey(strings.Join(fields, " "))) {
		switch {
		case onWords.has(tok):
			return PowerOn
		case offWords.has(tok):
			return PowerOff
		}
	}
	return ""
}
