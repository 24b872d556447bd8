package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Büro", "buero"},
		{"  Küche  (EG) ", "kueche eg"},
		{"Straße", "strasse"},
		{"Café-Ecke", "cafe ecke"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchKey(tt.in))
		})
	}
}

func TestDisplayFoldKeepsDiacritics(t *testing.T) {
	assert.Equal(t, "büro oben", DisplayFold("  BÜRO \t Oben "))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "kaffee-vollautomat", Slug("Kaffee Vollautomat"))
	assert.Equal(t, "geraete", Slug("Geräte"))
}

func TestNormalizeDecimalWords(t *testing.T) {
	assert.Equal(t, "auf 21,5 grad", NormalizeDecimalWords("auf 21 komma 5 grad"))
	assert.Equal(t, "19,0", NormalizeDecimalWords("19 punkt 0"))
	assert.Equal(t, "21,5 grad", NormalizeDecimalWords("21komma5 grad"))
	assert.Equal(t, "auf 19,5", NormalizeDecimalWords("auf 19 komma5"))
	assert.Equal(t, "das komma ist falsch", NormalizeDecimalWords("das komma ist falsch"))
	assert.Equal(t, "punkt 5 uhr", NormalizeDecimalWords("punkt 5 uhr"))
}

func TestNormalizeFloor(t *testing.T) {
	assert.Equal(t, "flur eg", NormalizeFloor("flur erdgeschoss"))
	assert.Equal(t, "bad og", NormalizeFloor("bad Obergeschoss"))
	assert.Equal(t, "erdgeschosswohnung", NormalizeFloor("erdgeschosswohnung"))
}

func TestCanonicalizeAction(t *testing.T) {
	tests := []struct {
		name                                   string
		action, device, catchAll, object, room string
		want                                   string
	}{
		{name: "exit outranks on", action: "verlassen", device: "licht an", want: ActionExit},
		{name: "end", action: "beenden", want: ActionEnd},
		{name: "bare one", action: "eins", want: ActionOn},
		{name: "one with percent", action: "1", object: "prozent", want: "1"},
		{name: "on words", action: "an", device: "licht", want: ActionOn},
		{name: "on before machen", action: "machen", device: "licht an", want: ActionOn},
		{name: "off words", action: "ausschalten", want: ActionOff},
		{name: "bare zero", action: "null", want: ActionOff},
		{name: "set verb", action: "stelle", device: "heizung", want: ActionSet},
		{name: "auf with grad", device: "heizung", catchAll: "auf 21 grad", want: ActionSet},
		{name: "auf without temperature opens", device: "rollladen", action: "auf", want: ActionOpen},
		{name: "drive", action: "fahre", device: "rollladen", want: ActionDrive},
		{name: "close", action: "schließen", want: ActionClose},
		{name: "stop", action: "stopp", want: ActionStop},
		{name: "shade", action: "beschatten", want: ActionShade},
		{name: "ventilate", action: "lüften", want: ActionVentilate},
		{name: "middle word", action: "mitte", want: ActionMiddle},
		{name: "fifty percent", object: "50%", want: ActionMiddle},
		{name: "dim", action: "dimmen", want: ActionDim},
		{name: "status", action: "status", device: "heizung", want: ActionReadStatus},
		{name: "raw fallback", action: "Kochen", want: "kochen"},
		{name: "empty", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalizeAction(tt.action, tt.device, tt.catchAll, tt.object, tt.room)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeActionIdempotent(t *testing.T) {
	inputs := [][5]string{
		{"verlassen"}, {"beenden"}, {"eins"}, {"an", "licht"}, {"aus"},
		{"stelle"}, {"fahre"}, {"öffne"}, {"zumachen"}, {"halt"},
		{"beschatten"}, {"lüften"}, {"halbe"}, {"heller"}, {"zeige"},
		{"Kochen"}, {""},
	}
	for _, in := range inputs {
		once := CanonicalizeAction(in[0], in[1], in[2], in[3], in[4])
		twice := CanonicalizeAction(once, "", "", "", "")
		assert.Equal(t, once, twice, "input %q", in[0])
	}
}

func TestExtractPowerFromRoomTail(t *testing.T) {
	tests := []struct {
		in, room, power string
	}{
		{"Büro aus", "Büro", PowerOff},
		{"Wohnzimmer an!", "Wohnzimmer", PowerOn},
		{"Küche einschalten.", "Küche", PowerOn},
		{"Garten", "Garten", ""},
		{"aus", "", PowerOff},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			room, power := ExtractPowerFromRoomTail(tt.in)
			assert.Equal(t, tt.room, room)
			assert.Equal(t, tt.power, power)
		})
	}
}

func TestStripActionWords(t *testing.T) {
	assert.Equal(t, "kaffeemaschine", StripActionWords("Kaffeemaschine einschalten"))
	assert.Equal(t, "rasen", StripActionWords("Rasen an"))
	assert.Equal(t, "espresso", StripActionWords("Espresso"))
	assert.Equal(t, "", StripActionWords("ausschalten"))
	assert.Equal(t, "", StripActionWords(""))
}

func TestPowerFromTokens(t *testing.T) {
	assert.Equal(t, PowerOn, PowerFromTokens(PowerOn, "licht aus"))
	assert.Equal(t, PowerOff, PowerFromTokens("", "licht", "ausschalten"))
	assert.Equal(t, PowerOn, PowerFromTokens("", "Licht AN"))
	assert.Equal(t, "", PowerFromTokens("", "heizung", "21 grad"))
}
