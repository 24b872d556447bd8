package resolver

import (
	"strings"

	"github.com/nadzzz/roomcall/internal/textnorm"
)

// Functional domains.
const (
	Heating     = "heizung"
	Blinds      = "rollladen"
	Lighting    = "licht"
	Ventilation = "lueftung"
	Appliances  = "geraete"
	Irrigation  = "bewaesserung"
	Settings    = "einstellungen"
	Scene       = "szene"
)

// Domains lists the functional domains in keyword priority order. Scene is
// last; it is selected by the scene slot rather than by keywords.
var Domains = []string{Heating, Blinds, Lighting, Ventilation, Appliances, Irrigation, Settings, Scene}

// DefaultTabDomains are the domains whose targets are catalog tabs.
var DefaultTabDomains = []string{Appliances, Irrigation}

// IsDomain reports whether d is a known functional domain.
func IsDomain(d string) bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// keywords are match-key fragments; a token containing one selects the
// domain. German compounds ("Deckenlicht", "Heizkörper") match by fragment.
var keywords = []struct {
	domain string
	frags  []string
}{
	{Heating, []string{"heiz", "thermostat", "temperatur", "klima"}},
	{Blinds, []string{"rollladen", "rolladen", "rolllaeden", "rollo", "jalousie", "markise", "beschatt", "raffstore"}},
	{Lighting, []string{"licht", "lampe", "leuchte", "beleuchtung", "dimm"}},
	{Ventilation, []string{"lueft", "ventilat", "abluft"}},
	{Appliances, []string{"geraet", "kaffee", "waschmaschine", "trockner", "spuelmaschine", "backofen"}},
	{Irrigation, []string{"bewaesser", "rasensprenger", "sprinkler", "giess"}},
	{Settings, []string{"einstellung", "konfiguration", "setup"}},
}

// navTargets maps navigation ids of the visual panel to domains.
var navTargets = map[string]string{
	"heizung":       Heating,
	"klima":         Heating,
	"rollladen":     Blinds,
	"rollos":        Blinds,
	"jalousien":     Blinds,
	"licht":         Lighting,
	"beleuchtung":   Lighting,
	"lueftung":      Ventilation,
	"geraete":       Appliances,
	"bewaesserung":  Irrigation,
	"garten":        Irrigation,
	"einstellungen": Settings,
	"settings":      Settings,
	"szene":         Scene,
	"szenen":        Scene,
}

// Navigation command pairs ("<domain>.<verb>" of Event.Arg1).
var (
	navOpen = map[string]bool{"nav.open": true, "nav.goto": true, "menu.select": true}
	navHome = map[string]bool{"nav.home": true, "menu.home": true}
	navBack = map[string]bool{"nav.back": true, "menu.back": true}
)

func keywordDomain(text string) string {
	tokens := strings.Fields(textnorm.MatchKey(text))
	for _, kw := range keywords {
		for _, tok := range tokens {
			for _, f := range kw.frags {
				if strings.Contains(tok, f) {
					return kw.domain
				}
			}
		}
	}
	return ""
}

func mentionsTemperature(text string) bool {
	key := textnorm.MatchKey(text)
	return strings.Contains(key, "temperatur") || textnorm.ContainsWord(key, "grad")
}
