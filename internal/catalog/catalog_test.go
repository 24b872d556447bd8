package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/catalog/catalogtest"
)

func TestParsePreservesRoomOrder(t *testing.T) {
	c := catalogtest.Sample(t)

	var keys []string
	for _, r := range c.Rooms {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"buero", "kueche", "bad", "wohnzimmer", "kinderzimmer", "flur", "garten"}, keys)
	assert.Equal(t, catalog.GlobalKey, c.Global.Key)
	require.Len(t, c.Global.ExternalPages, 2)
	assert.Equal(t, "wetter", c.Global.ExternalPages[0].ID)
}

func TestRoomLookup(t *testing.T) {
	c := catalogtest.Sample(t)

	r, ok := c.Room("kueche")
	require.True(t, ok)
	assert.Equal(t, "Küche", r.Display)
	assert.Equal(t, []string{"geraete", "heizung", "licht"}, r.DomainKeys())

	g, ok := c.Room(catalog.GlobalKey)
	require.True(t, ok)
	assert.Contains(t, g.Domains, "geraete")

	_, ok = c.Room("keller")
	assert.False(t, ok)

	all := c.WithGlobal()
	assert.Equal(t, catalog.GlobalKey, all[0].Key)
	assert.Len(t, all, len(c.Rooms)+1)
}

func TestHashFollowsContent(t *testing.T) {
	a := catalogtest.Sample(t)
	b := catalogtest.Sample(t)
	assert.Equal(t, a.Hash(), b.Hash())

	changed, err := catalog.Parse(append(catalogtest.Bytes(), []byte("\n# edited\n")...))
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), changed.Hash())

	built := &catalog.Catalog{Rooms: catalog.Rooms{{Key: "x", Display: "X"}}}
	assert.NotZero(t, built.Hash())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, catalogtest.Bytes(), 0o600))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Rooms, 7)

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsRoomList(t *testing.T) {
	_, err := catalog.Parse([]byte("rooms:\n  - buero\n"))
	assert.Error(t, err)
}
