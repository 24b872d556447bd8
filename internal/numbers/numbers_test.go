package numbers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlot(t *testing.T) {
	display, v, ok := FromSlot("22,5")
	require.True(t, ok)
	assert.Equal(t, "22,5", display)
	assert.InDelta(t, 22.5, v, 1e-9)

	display, v, ok = FromSlot("19.5")
	require.True(t, ok)
	assert.Equal(t, "19,5", display)
	assert.InDelta(t, 19.5, v, 1e-9)

	_, _, ok = FromSlot(Unknown)
	assert.False(t, ok)
	_, _, ok = FromSlot("viel")
	assert.False(t, ok)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		slot    string
		fields  []string
		display string
		value   float64
		found   bool
	}{
		{name: "slot wins", slot: "23", fields: []string{"auf 19 grad"}, display: "23", value: 23, found: true},
		{name: "unknown slot falls back to text", slot: "?", fields: []string{"auf 19 grad"}, display: "19", value: 19, found: true},
		{name: "decimal word", fields: []string{"auf 21 komma 5 grad"}, display: "21,5", value: 21.5, found: true},
		{name: "auf pattern first", fields: []string{"in 2 minuten auf 18"}, display: "18", value: 18, found: true},
		{name: "grad pattern", fields: []string{"heizung", "20 Grad"}, display: "20", value: 20, found: true},
		{name: "bare skips percent", fields: []string{"40 % und 3"}, display: "3", value: 3, found: true},
		{name: "only percent", fields: []string{"40%"}},
		{name: "nothing", fields: []string{"licht an"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display, v := Extract(tt.slot, tt.fields...)
			if !tt.found {
				assert.Nil(t, v)
				assert.Empty(t, display)
				return
			}
			require.NotNil(t, v)
			assert.Equal(t, tt.display, display)
			assert.InDelta(t, tt.value, *v, 1e-9)
		})
	}
}

func TestMergeDecimalFromPercent(t *testing.T) {
	n, p := MergeDecimalFromPercent("21", "5", "die temperatur auf 21 grad")
	assert.Equal(t, "21,5", n)
	assert.Empty(t, p)

	n, p = MergeDecimalFromPercent("21", "5", "21 prozent")
	assert.Equal(t, "21", n)
	assert.Equal(t, "5", p)

	n, p = MergeDecimalFromPercent("21,5", "5", "temperatur")
	assert.Equal(t, "21,5", n)
	assert.Equal(t, "5", p)

	n, p = MergeDecimalFromPercent("21", "50", "grad")
	assert.Equal(t, "21", n)
	assert.Equal(t, "50", p)

	n, p = MergeDecimalFromPercent("21", "5", "licht")
	assert.Equal(t, "21", n)
	assert.Equal(t, "5", p)
}
