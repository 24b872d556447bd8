// Package routing selects the renderer route for a resolved turn.
//
// A Table is an ordered list of named predicates. The first predicate that
// holds selects the route. Predicates only look at the resolved state, so
// the same state always selects the same route.
package routing

import (
	"strings"

	"github.com/nadzzz/roomcall/internal/resolver"
)

// Route names.
const (
	MainLaunch = "main_launch"
	External   = "external"
)

// Route is one table row.
type Route struct {
	Name  string
	Match func(resolver.State) bool
}

// Table is an ordered route list.
type Table []Route

// Select returns the first matching route name. Every "main" variant
// ("main", "main_back", ...) is reported as MainLaunch.
func (t Table) Select(st resolver.State) (string, bool) {
	for _, r := range t {
		if r.Match(st) {
			return normalize(r.Name), true
		}
	}
	return "", false
}

func normalize(name string) string {
	if name == "main" || strings.HasPrefix(name, "main_") {
		return MainLaunch
	}
	return name
}

// Default returns the standard table: launch and back/home navigation, one
// route per functional domain, event-prefix routes for the domains with
// dynamic sub-routes, and external pages.
func Default(eventPrefixDomains []string) Table {
	t := Table{
		{Name: "main", Match: func(st resolver.State) bool { return st.Launch || st.Back }},
		{Name: "main_home", Match: func(st resolver.State) bool { return st.Home }},
	}
	for _, d := range resolver.Domains {
		t = append(t, Route{Name: d, Match: domainIs(d)})
	}
	for _, d := range eventPrefixDomains {
		t = append(t, Route{Name: d, Match: eventPrefix(d + ".")})
	}
	t = append(t, Route{Name: External, Match: func(st resolver.State) bool { return st.External != nil }})
	return t
}

func domainIs(d string) func(resolver.State) bool {
	return func(st resolver.State) bool {
		return st.Domain == d || st.Device == d
	}
}

func eventPrefix(prefix string) func(resolver.State) bool {
	return func(st resolver.State) bool {
		return st.Event != nil && strings.HasPrefix(strings.ToLower(st.Event.Arg1), prefix)
	}
}
