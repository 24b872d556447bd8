package tabs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/catalog/catalogtest"
)

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestBuildMergesGlobalAndRooms(t *testing.T) {
	entries := Build(catalogtest.Sample(t), "geraete")

	assert.Equal(t, []string{"spuelen", "kaffee", "waschen"}, ids(entries))
	assert.Equal(t, "Spülmaschine", entries[0].Title)
	assert.Equal(t, "kueche", entries[0].Room)
	assert.Equal(t, catalog.GlobalKey, entries[1].Room)
	assert.Equal(t, []string{"kaffeemaschine", "espresso"}, entries[1].Synonyms)
}

func TestBuildLegacyKeys(t *testing.T) {
	cat := catalogtest.Sample(t)

	assert.Equal(t, []string{"rasen", "beete"}, ids(Build(cat, "bewaesserung")))
	assert.Equal(t, []string{"decke", "schalter"}, ids(Build(cat, "licht")))
	assert.Empty(t, Build(cat, "lueftung"))
	assert.Empty(t, Build(cat, "unbekannt"))
}

func TestBuildListWithoutIDs(t *testing.T) {
	cat, err := catalog.Parse([]byte(`
global:
  domains:
    szene:
      categories:
        - title: Guten Morgen
          order: "2"
        - name: Kino
          synonyms: "film, fernsehen"
`))
	require.NoError(t, err)

	entries := Build(cat, "szene")
	require.Len(t, entries, 2)
	assert.Equal(t, "kino", entries[0].ID)
	assert.Equal(t, []string{"film", "fernsehen"}, entries[0].Synonyms)
	assert.Equal(t, "guten-morgen", entries[1].ID)
	assert.Equal(t, 2, entries[1].Order)
}

func TestFindID(t *testing.T) {
	entries := Build(catalogtest.Sample(t), "geraete")

	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"Kaffeevollautomat", "kaffee", true},
		{"den kaffeevollautomat bitte", "kaffee", true},
		{"espresso", "kaffee", true},
		{"wasch", "waschen", true},
		{"Spülmaschine", "spuelen", true},
		{"fernseher", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := FindID(tt.query, entries)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindIDFirstMatchWinsOnOverlap(t *testing.T) {
	entries := Build(catalogtest.Sample(t), "licht")

	got, ok := FindID("Lichtschalter", entries)
	require.True(t, ok)
	assert.Equal(t, "decke", got)
}

func TestInferDomain(t *testing.T) {
	cat := catalogtest.Sample(t)

	d, ok := InferDomain("Geräte", cat)
	assert.True(t, ok)
	assert.Equal(t, "geraete", d)

	d, ok = InferDomain("rasen", cat)
	assert.True(t, ok)
	assert.Equal(t, "bewaesserung", d)

	_, ok = InferDomain("lueftung", cat)
	assert.False(t, ok)
}

func TestIndexCachesPerContent(t *testing.T) {
	idx, err := NewIndex(8)
	require.NoError(t, err)

	cat := catalogtest.Sample(t)
	first := idx.Entries(cat, "geraete")
	assert.Equal(t, 1, idx.Len())
	_ = idx.Entries(catalogtest.Sample(t), "geraete")
	assert.Equal(t, 1, idx.Len(), "same content shares a cache entry")

	edited, err := catalog.Parse([]byte(`
global:
  domains:
    geraete:
      tabs:
        trockner: Trockner
`))
	require.NoError(t, err)
	second := idx.Entries(edited, "geraete")
	assert.Equal(t, 2, idx.Len())
	assert.NotEqual(t, ids(first), ids(second))
}

func TestIndexResolveFallsBackToInferredDomain(t *testing.T) {
	idx, err := NewIndex(0)
	require.NoError(t, err)
	cat := catalogtest.Sample(t)

	id, domain, ok := idx.Resolve(cat, "geraete", "Kaffeevollautomat")
	require.True(t, ok)
	assert.Equal(t, "kaffee", id)
	assert.Equal(t, "geraete", domain)

	id, domain, ok = idx.Resolve(cat, "beete", "rasensprenger")
	require.True(t, ok)
	assert.Equal(t, "rasen", id)
	assert.Equal(t, "bewaesserung", domain)

	_, _, ok = idx.Resolve(cat, "lueftung", "ventilator")
	assert.False(t, ok)
}
