// Package tabs flattens the dynamically configured equipment tabs of a
// catalog domain into a sorted index and matches spoken names against it.
package tabs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/textnorm"
)

// legacyKeys are the domain config keys that may hold tabs, in lookup order.
var legacyKeys = []string{"tabs", "Tabs", "tab", "kategorien", "categories"}

// Entry is one tab of a domain.
type Entry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Order    int      `json:"order"`
	Synonyms []string `json:"synonyms,omitempty"`
	Room     string   `json:"room"`
}

// Build collects the tabs of domain from the global pseudo-room and every
// room, deduplicated by (id, title) and sorted by order then title.
func Build(cat *catalog.Catalog, domain string) []Entry {
	var out []Entry
	seen := make(map[[2]string]bool)
	for _, room := range cat.WithGlobal() {
		cfg, ok := room.Domains[domain]
		if !ok {
			continue
		}
		for _, e := range fromConfig(cfg) {
			e.Room = room.Key
			k := [2]string{e.ID, e.Title}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

func fromConfig(cfg map[string]any) []Entry {
	for _, key := range legacyKeys {
		raw, ok := cfg[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case map[string]any:
			ids := make([]string, 0, len(v))
			for id := range v {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			out := make([]Entry, 0, len(v))
			for _, id := range ids {
				if e, ok := entry(id, v[id]); ok {
					out = append(out, e)
				}
			}
			return out
		case []any:
			out := make([]Entry, 0, len(v))
			for _, item := range v {
				if e, ok := entry("", item); ok {
					out = append(out, e)
				}
			}
			return out
		}
	}
	return nil
}

func entry(id string, raw any) (Entry, bool) {
	e := Entry{ID: id}
	switch v := raw.(type) {
	case string:
		e.Title = v
	case map[string]any:
		if s, ok := v["id"].(string); ok && s != "" {
			e.ID = s
		}
		e.Title = str(v["title"])
		if e.Title == "" {
			e.Title = str(v["name"])
		}
		e.Order = num(v["order"])
		e.Synonyms = list(v["synonyms"])
	default:
		return Entry{}, false
	}
	if e.ID == "" {
		e.ID = textnorm.Slug(e.Title)
	}
	if e.Title == "" {
		e.Title = e.ID
	}
	return e, e.ID != ""
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}

func list(v any) []string {
	switch l := v.(type) {
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return l
	case string:
		var out []string
		for _, s := range strings.Split(l, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// FindID matches query against the folded titles and synonyms of entries.
// Equality or containment in either direction counts as a hit; the first
// hit in index order wins, so "Licht" and "Lichtschalter" resolve by sort
// order.
func FindID(query string, entries []Entry) (string, bool) {
	q := textnorm.MatchKey(query)
	if q == "" {
		return "", false
	}
	for _, e := range entries {
		if matches(q, textnorm.MatchKey(e.Title)) {
			return e.ID, true
		}
		for _, syn := range e.Synonyms {
			if matches(q, textnorm.MatchKey(syn)) {
				return e.ID, true
			}
		}
	}
	return "", false
}

func matches(q, candidate string) bool {
	if candidate == "" {
		return false
	}
	return q == candidate || strings.Contains(q, candidate) || strings.Contains(candidate, q)
}

// InferDomain finds a domain whose key or one of whose tab titles slugs to
// the same value as routeKey. It is used when the domain configured for a
// route yields no tabs. Only domains with at least one tab qualify.
func InferDomain(routeKey string, cat *catalog.Catalog) (string, bool) {
	want := textnorm.Slug(routeKey)
	if want == "" {
		return "", false
	}
	var domains []string
	seen := make(map[string]bool)
	for _, room := range cat.WithGlobal() {
		for _, d := range room.DomainKeys() {
			if !seen[d] {
				seen[d] = true
				domains = append(domains, d)
			}
		}
	}
	for _, d := range domains {
		entries := Build(cat, d)
		if len(entries) == 0 {
			continue
		}
		if textnorm.Slug(d) == want {
			return d, true
		}
		for _, e := range entries {
			if textnorm.Slug(e.Title) == want {
				return d, true
			}
		}
	}
	return "", false
}

type cacheKey struct {
	hash   uint64
	domain string
}

// Index caches built tab lists per catalog content hash and domain. A
// catalog with new content hashes differently and is rebuilt on first use.
type Index struct {
	cache *lru.Cache[cacheKey, []Entry]
}

// NewIndex returns an index holding at most size domain builds.
func NewIndex(size int) (*Index, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[cacheKey, []Entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating tab cache: %w", err)
	}
	return &Index{cache: c}, nil
}

// Entries returns the tabs of domain in cat, building them on a cache miss.
func (x *Index) Entries(cat *catalog.Catalog, domain string) []Entry {
	k := cacheKey{hash: cat.Hash(), domain: domain}
	if e, ok := x.cache.Get(k); ok {
		return e
	}
	e := Build(cat, domain)
	x.cache.Add(k, e)
	return e
}

// Resolve looks domain's tabs up and falls back to an inferred domain when
// domain has none. It returns the matched tab id and the domain it was
// found in.
func (x *Index) Resolve(cat *catalog.Catalog, domain, query string) (id, foundIn string, ok bool) {
	entries := x.Entries(cat, domain)
	foundIn = domain
	if len(entries) == 0 {
		alt, found := InferDomain(domain, cat)
		if !found {
			return "", "", false
		}
		entries = x.Entries(cat, alt)
		foundIn = alt
	}
	id, ok = FindID(query, entries)
	if !ok {
		return "", "", false
	}
	return id, foundIn, true
}

// Len reports the number of cached builds.
func (x *Index) Len() int { return x.cache.Len() }
