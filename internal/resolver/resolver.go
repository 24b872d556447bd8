// Package resolver turns a normalized turn into one decision: the domain and
// device that should handle it, plus room, number and power.
//
// Stages run in a fixed order and each only runs while the domain is still
// open:
//
//  1. navigation tap (authoritative, skips all later domain stages)
//  2. external page selection
//  3. slot normalization (always)
//  4. event tuple domain
//  5. tab fallback for tab domains
//  6. keyword matcher
//  7. remembered domain preference
//
// Explicit UI intent beats inferred intent, and anything inferred from the
// current turn beats a domain remembered from an earlier one.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/message"
	"github.com/nadzzz/roomcall/internal/numbers"
	"github.com/nadzzz/roomcall/internal/rooms"
	"github.com/nadzzz/roomcall/internal/store"
	"github.com/nadzzz/roomcall/internal/tabs"
	"github.com/nadzzz/roomcall/internal/textnorm"
)

// Stage names recorded in State.Stage.
const (
	StageNavigation = "navigation"
	StageExternal   = "external"
	StageEvent      = "event"
	StageTab        = "tab"
	StageKeyword    = "keyword"
	StagePreference = "preference"
)

// State is the resolved turn.
type State struct {
	Domain string
	Device string

	// Room is the catalog room key when RoomKnown, otherwise the cleaned
	// spoken room text.
	Room      string
	RoomKnown bool

	// Action is the canonical verb.
	Action string

	// NumberText is the display form ("21,5") of Number.
	NumberText string
	Number     *float64
	Percent    string

	// Power is "on", "off" or empty.
	Power string

	// TabID is the catalog tab the request targets, for tab domains.
	TabID string

	// NavOverride is set when a navigation tap forced the domain.
	NavOverride bool
	Launch      bool
	Back        bool
	Home        bool

	External *catalog.ExternalPage
	Event    *message.Event

	// Route is filled in by the dispatcher.
	Route string

	// Stage names the stage that determined Domain.
	Stage string
}

// Options tune a Resolver.
type Options struct {
	// PriorityRooms override rooms.DefaultPriority.
	PriorityRooms []string
	// TabDomains override DefaultTabDomains.
	TabDomains []string
}

// Resolver runs the resolution stages against one catalog.
type Resolver struct {
	cat        *catalog.Catalog
	rooms      *rooms.Resolver
	tabs       *tabs.Index
	kv         store.KV
	tabDomains []string
}

// New creates a resolver. kv holds the remembered domain preference and may
// be nil, which disables that stage.
func New(cat *catalog.Catalog, idx *tabs.Index, kv store.KV, opts Options) *Resolver {
	td := opts.TabDomains
	if len(td) == 0 {
		td = DefaultTabDomains
	}
	return &Resolver{
		cat:        cat,
		rooms:      rooms.New(cat, opts.PriorityRooms),
		tabs:       idx,
		kv:         kv,
		tabDomains: td,
	}
}

// Rooms exposes the room resolver for display lookups.
func (r *Resolver) Rooms() *rooms.Resolver { return r.rooms }

// Resolve runs all stages for turn. It never fails on odd input; an
// undetermined domain is reported as an empty Domain.
func (r *Resolver) Resolve(ctx context.Context, turn *message.Turn) State {
	s := turn.Slots
	st := State{Launch: turn.Launch, Event: turn.Event}
	logger := slog.With("turn_id", turn.ID)

	navTarget := r.navigation(&st, turn.Event)
	r.external(&st, s, navTarget)
	r.normalize(&st, s)

	if st.NavOverride || st.External != nil || st.Home || st.Back {
		logger.Debug("domain stages skipped", "nav_override", st.NavOverride, "external", st.External != nil)
		return st
	}

	r.fromEvent(&st, turn.Event)
	if st.Domain == "" {
		r.fromTabs(&st, s)
	}
	if st.Domain == "" {
		fromKeywords(&st, s)
	}
	if st.Domain == "" {
		r.fromPreference(ctx, &st, logger)
	}

	logger.Debug("turn resolved",
		"domain", st.Domain, "device", st.Device, "room", st.Room,
		"action", st.Action, "stage", st.Stage, "tab", st.TabID)
	return st
}

// navigation applies a navigation tap and returns the navigation target id.
func (r *Resolver) navigation(st *State, ev *message.Event) string {
	if ev == nil {
		return ""
	}
	d, v, id := ev.Parts()
	pair := d + "." + v
	switch {
	case navHome[pair]:
		st.Home = true
		return ""
	case navBack[pair]:
		st.Back = true
		return ""
	case !navOpen[pair]:
		return ""
	}
	target := textnorm.MatchKey(id)
	if target == "" {
		target = textnorm.MatchKey(ev.Arg2)
	}
	switch target {
	case "home", "start":
		st.Home = true
		return target
	}
	if domain, ok := navTargets[strings.ReplaceAll(target, " ", "")]; ok {
		st.Domain = domain
		st.Device = domain
		st.NavOverride = true
		st.Stage = StageNavigation
	}
	return target
}

func (r *Resolver) external(st *State, s message.Slots, navTarget string) {
	action := textnorm.MatchKey(s.Action)
	for i := range r.cat.Global.ExternalPages {
		page := &r.cat.Global.ExternalPages[i]
		if action != "" && containsKey(page.Actions, action) || navTarget != "" && containsKey(page.Nav, navTarget) {
			st.External = page
			// A navigation target keeps its stage; the page still rides along.
			if !st.NavOverride {
				st.Stage = StageExternal
			}
			return
		}
	}
}

func containsKey(list []string, key string) bool {
	for _, item := range list {
		if textnorm.MatchKey(item) == key {
			return true
		}
	}
	return false
}

func (r *Resolver) normalize(st *State, s message.Slots) {
	roomText, powerHint := textnorm.ExtractPowerFromRoomTail(s.Room)
	roomText = textnorm.NormalizeFloor(roomText)

	st.Action = textnorm.CanonicalizeAction(s.Action, s.Device, s.CatchAll, s.Object, roomText)

	st.Room, st.RoomKnown = r.room(roomText, s.CatchAll)

	display, value := numbers.Extract(s.Number, s.Action, s.Device, s.CatchAll, s.Object)
	merged, percent := numbers.MergeDecimalFromPercent(display, s.Percent, s.Text())
	if merged != display {
		display, value = numbers.Extract(merged)
	}
	st.NumberText, st.Number, st.Percent = display, value, strings.TrimSpace(percent)

	st.Power = textnorm.PowerFromTokens(powerHint, s.Action, s.Device, s.CatchAll, s.Object)
}

// room resolves the room slot, falling back to the catch-all slot only when
// no room was spoken at all.
func (r *Resolver) room(roomText, catchAll string) (string, bool) {
	if key, ok := r.rooms.Resolve(roomText); ok {
		return key, true
	}
	if strings.TrimSpace(roomText) == "" {
		if key, ok := r.rooms.Resolve(catchAll); ok {
			return key, true
		}
	}
	return textnorm.DisplayFold(roomText), false
}

func (r *Resolver) fromEvent(st *State, ev *message.Event) {
	if ev == nil {
		return
	}
	d, _, id := ev.Parts()
	d = textnorm.MatchKey(d)
	if !IsDomain(d) {
		return
	}
	st.Domain = d
	if st.Device == "" {
		st.Device = d
	}
	st.Stage = StageEvent
	if !r.isTabDomain(d) {
		return
	}
	if id != "" {
		st.TabID = id
		return
	}
	if tab, _, ok := r.tabs.Resolve(r.cat, d, ev.Arg2); ok {
		st.TabID = tab
	}
}

func (r *Resolver) isTabDomain(d string) bool {
	for _, td := range r.tabDomains {
		if td == d {
			return true
		}
	}
	return false
}

func (r *Resolver) fromTabs(st *State, s message.Slots) {
	// Verbs ("ein", "stellen") are never tab names; whatever else a slot
	// says is still a candidate.
	queries := []string{
		textnorm.StripActionWords(s.Action),
		textnorm.StripActionWords(s.Device),
		textnorm.StripActionWords(s.Object),
		textnorm.StripActionWords(s.CatchAll),
	}
	for _, d := range r.tabDomains {
		for _, q := range queries {
			if len(q) < 3 {
				continue
			}
			if id, _, ok := r.tabs.Resolve(r.cat, d, q); ok {
				st.Domain, st.Device, st.TabID = d, d, id
				st.Stage = StageTab
				return
			}
		}
	}
}

func fromKeywords(st *State, s message.Slots) {
	text := strings.Join([]string{s.Action, s.Device, s.CatchAll, s.Room}, " ")
	domain := ""
	switch {
	case mentionsTemperature(text):
		domain = Heating
	case strings.TrimSpace(s.Scene) != "":
		domain = Scene
	default:
		domain = keywordDomain(text)
	}
	if domain == "" {
		return
	}
	st.Domain = domain
	if st.Device == "" {
		st.Device = domain
	}
	st.Stage = StageKeyword
}

func (r *Resolver) fromPreference(ctx context.Context, st *State, logger *slog.Logger) {
	if r.kv == nil {
		return
	}
	pref, err := r.kv.Get(ctx, store.KeyDomainPref)
	if err != nil {
		logger.Warn("reading domain preference failed", "error", err)
		return
	}
	pref = strings.TrimSpace(pref)
	if pref == "" || !IsDomain(pref) {
		return
	}
	st.Domain = pref
	if st.Device == "" {
		st.Device = pref
	}
	st.Stage = StagePreference
}
