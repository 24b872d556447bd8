// Package rooms resolves spoken room phrases to catalog room keys.
package rooms

import (
	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/textnorm"
)

// DefaultPriority lists the rooms whose names occur inside many unrelated
// phrases. A whole-word hit on one of their synonyms beats every other
// match.
var DefaultPriority = []string{"kueche", "bad"}

type term struct {
	key  string // match key of the alias
	room string
}

// Resolver matches text against the room aliases of one catalog.
type Resolver struct {
	cat      *catalog.Catalog
	index    map[string]string
	terms    []term
	priority []term
}

// New builds the alias index for cat. priority defaults to DefaultPriority
// when nil.
func New(cat *catalog.Catalog, priority []string) *Resolver {
	if priority == nil {
		priority = DefaultPriority
	}
	r := &Resolver{cat: cat, index: make(map[string]string)}
	for _, room := range cat.Rooms {
		for _, alias := range aliases(room) {
			k := textnorm.MatchKey(alias)
			if k == "" {
				continue
			}
			if _, dup := r.index[k]; dup {
				continue
			}
			r.index[k] = room.Key
			r.terms = append(r.terms, term{key: k, room: room.Key})
		}
	}
	for _, p := range priority {
		room, ok := cat.Room(p)
		if !ok {
			continue
		}
		for _, alias := range aliases(*room) {
			if k := textnorm.MatchKey(alias); k != "" {
				r.priority = append(r.priority, term{key: k, room: room.Key})
			}
		}
	}
	return r
}

func aliases(room catalog.Room) []string {
	out := make([]string, 0, len(room.Synonyms)+2)
	out = append(out, room.Key, room.Display)
	return append(out, room.Synonyms...)
}

// Resolve returns the room key for text. Empty or whitespace-only text never
// matches.
func (r *Resolver) Resolve(text string) (string, bool) {
	q := textnorm.MatchKey(text)
	if q == "" {
		return "", false
	}

	for _, t := range r.priority {
		if textnorm.ContainsWord(q, t.key) {
			return t.room, true
		}
	}

	if key, ok := r.index[q]; ok {
		return key, true
	}

	for _, room := range r.cat.Rooms {
		for _, alias := range aliases(room) {
			if textnorm.MatchKey(alias) == q {
				return room.Key, true
			}
		}
	}

	for _, t := range r.terms {
		if textnorm.ContainsWord(q, t.key) {
			return t.room, true
		}
	}
	return "", false
}

// Display returns the display name for a room key, or the key itself when
// the room is unknown.
func (r *Resolver) Display(key string) string {
	if room, ok := r.cat.Room(key); ok && room.Display != "" {
		return room.Display
	}
	return key
}
