// Package catalog holds the read-only room and equipment catalog the
// resolvers match against.
//
// The catalog is a YAML document with a "global" pseudo-room (cross-room
// tabs, external pages, defaults) and an ordered map of rooms. It is loaded
// once and never mutated; edits happen in an external tool and reach the
// daemon as a new file with a new content hash.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// GlobalKey is the key of the pseudo-room holding cross-room entries.
const GlobalKey = "global"

// ErrNoCatalog is returned when a catalog is required but none was loaded.
var ErrNoCatalog = errors.New("catalog: no catalog loaded")

// Catalog is the parsed room catalog.
type Catalog struct {
	Global Global `yaml:"global" json:"global"`
	Rooms  Rooms  `yaml:"rooms" json:"rooms"`

	hash uint64
}

// Global is the pseudo-room entry. Its domains hold tabs shared by all rooms.
type Global struct {
	Room          `yaml:",inline"`
	ExternalPages []ExternalPage `yaml:"external_pages" json:"external_pages,omitempty"`
	Defaults      map[string]any `yaml:"defaults" json:"defaults,omitempty"`
}

// Room is a single catalog room.
type Room struct {
	Key      string                    `yaml:"-" json:"key"`
	Display  string                    `yaml:"display" json:"display"`
	Synonyms []string                  `yaml:"synonyms" json:"synonyms,omitempty"`
	Floor    string                    `yaml:"floor" json:"floor,omitempty"`
	Domains  map[string]map[string]any `yaml:"domains" json:"domains,omitempty"`
}

// DomainKeys returns the room's domain keys in sorted order.
func (r *Room) DomainKeys() []string {
	keys := make([]string, 0, len(r.Domains))
	for k := range r.Domains {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExternalPage is a page outside the home-automation domains (weather,
// calendar, a camera feed) selected by action words or navigation ids.
type ExternalPage struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	URL     string   `yaml:"url" json:"url,omitempty"`
	Actions []string `yaml:"actions" json:"actions,omitempty"`
	Nav     []string `yaml:"nav" json:"nav,omitempty"`
}

// Rooms is the ordered room list. In YAML it is written as a mapping from
// room key to room; document order is preserved.
type Rooms []Room

// UnmarshalYAML decodes a key → room mapping into an ordered slice.
func (rs *Rooms) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rooms: expected mapping, got %v at line %d", node.Tag, node.Line)
	}
	out := make(Rooms, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var room Room
		if err := node.Content[i+1].Decode(&room); err != nil {
			return fmt.Errorf("room %q: %w", node.Content[i].Value, err)
		}
		room.Key = node.Content[i].Value
		out = append(out, room)
	}
	*rs = out
	return nil
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse parses catalog YAML. The content hash is taken over the raw bytes.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c.Global.Key = GlobalKey
	if c.Global.Display == "" {
		c.Global.Display = "Global"
	}
	c.hash = xxhash.Sum64(data)
	return &c, nil
}

// Hash identifies the catalog content. Catalogs built in code without
// Parse are hashed over their JSON form.
func (c *Catalog) Hash() uint64 {
	if c.hash != 0 {
		return c.hash
	}
	data, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

// Room returns the room with the given key. The global pseudo-room is
// returned for GlobalKey.
func (c *Catalog) Room(key string) (*Room, bool) {
	if key == GlobalKey {
		return &c.Global.Room, true
	}
	for i := range c.Rooms {
		if c.Rooms[i].Key == key {
			return &c.Rooms[i], true
		}
	}
	return nil, false
}

// WithGlobal returns the global pseudo-room followed by every real room.
func (c *Catalog) WithGlobal() []*Room {
	out := make([]*Room, 0, len(c.Rooms)+1)
	out = append(out, &c.Global.Room)
	for i := range c.Rooms {
		out = append(out, &c.Rooms[i])
	}
	return out
}
