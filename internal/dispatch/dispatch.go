// Package dispatch implements the turn pipeline.
//
// The dispatcher receives turns from transports, lets the onboarding wizard
// take them when it is active, resolves domain and target, selects a route
// and invokes the renderer once. The sender always receives a response;
// failures become short fixed sentences, never internal detail.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/message"
	"github.com/nadzzz/roomcall/internal/renderer"
	"github.com/nadzzz/roomcall/internal/resolver"
	"github.com/nadzzz/roomcall/internal/routing"
	"github.com/nadzzz/roomcall/internal/store"
	"github.com/nadzzz/roomcall/internal/tabs"
	"github.com/nadzzz/roomcall/internal/wizard"
)

// Fixed user-facing sentences.
const (
	MsgNoCatalog    = "Die Raumkonfiguration fehlt. Bitte prüfe die Installation."
	MsgNoStore      = "Der Zustandsspeicher fehlt. Bitte prüfe die Installation."
	MsgNoRenderer   = "Die Anzeige ist nicht eingerichtet. Bitte prüfe die Installation."
	MsgClarify      = "Das habe ich nicht verstanden. Was möchtest du steuern?"
	MsgRenderFailed = "Entschuldigung, das hat gerade nicht geklappt."
)

// Options tune a Dispatcher.
type Options struct {
	Resolver resolver.Options

	// Routes overrides routing.Default.
	Routes routing.Table

	// TabCacheSize bounds the tab index cache.
	TabCacheSize int

	// Onboarding enables the wizard for unseen devices.
	Onboarding bool
}

// Dispatcher is the central turn pipeline.
type Dispatcher struct {
	cat      *catalog.Catalog
	kv       store.KV
	resolver *resolver.Resolver
	routes   routing.Table
	renderer renderer.Renderer
	wizard   *wizard.Wizard // nil if onboarding is disabled
}

// New creates a Dispatcher. A nil catalog, store or renderer is accepted so
// the daemon can start and answer with a fixed failure sentence.
func New(cat *catalog.Catalog, kv store.KV, devices store.DeviceMap, r renderer.Renderer, opts Options) (*Dispatcher, error) {
	d := &Dispatcher{cat: cat, kv: kv, renderer: r, routes: opts.Routes}

	if cat != nil {
		idx, err := tabs.NewIndex(opts.TabCacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating tab index: %w", err)
		}
		d.resolver = resolver.New(cat, idx, kv, opts.Resolver)
	}
	if d.routes == nil {
		tabDomains := opts.Resolver.TabDomains
		if len(tabDomains) == 0 {
			tabDomains = resolver.DefaultTabDomains
		}
		d.routes = routing.Default(tabDomains)
	}
	if opts.Onboarding && kv != nil && devices != nil {
		d.wizard = wizard.New(devices, kv)
	}
	return d, nil
}

// Handle processes one turn through the full pipeline.
// This function is passed as the transport.Handler to each transport.
func (d *Dispatcher) Handle(ctx context.Context, turn *message.Turn) (*message.Response, error) {
	start := time.Now()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = start
	}
	logger := slog.With("turn_id", turn.ID, "device_id", turn.DeviceID)
	resp := &message.Response{TurnID: turn.ID}

	switch {
	case d.cat == nil:
		logger.Error("turn aborted: no catalog loaded")
		return failed(resp, MsgNoCatalog, "missing catalog"), nil
	case d.kv == nil:
		logger.Error("turn aborted: no state store configured")
		return failed(resp, MsgNoStore, "missing store"), nil
	case d.renderer == nil:
		logger.Error("turn aborted: no renderer configured")
		return failed(resp, MsgNoRenderer, "missing renderer"), nil
	}

	if reply := d.onboard(ctx, turn, logger); reply != nil {
		resp.Speech = reply.Speech
		resp.Reprompt = reply.Reprompt
		logger.Info("turn handled by onboarding", "duration", time.Since(start))
		return resp, nil
	}

	st := d.resolver.Resolve(ctx, turn)
	resp.Domain, resp.Device, resp.Room = st.Domain, st.Device, st.Room

	route, ok := d.routes.Select(st)
	if !ok {
		logger.Info("no route matched",
			"action", st.Action, "room", st.Room, "slots", turn.Slots, "event", turn.Event)
		if err := d.kv.Set(ctx, store.KeyDomainPref, ""); err != nil {
			logger.Warn("clearing domain preference failed", "error", err)
		}
		resp.Speech = MsgClarify
		resp.Reprompt = MsgClarify
		return resp, nil
	}
	st.Route = route
	resp.Route = route
	logger = logger.With("route", route, "domain", st.Domain, "device", st.Device)

	switch res := d.renderer.Render(ctx, route, d.payload(turn, st)).(type) {
	case renderer.Ok:
		resp.Speech = res.Data.Speech
		resp.Reprompt = res.Data.Reprompt
		resp.Card = res.Data.Card
		resp.APL = res.Data.APL
		resp.Directives = res.Data.Directives
		resp.EndSession = !res.Flags.SetSkillActive
		if res.Flags.SetDomainFlag {
			d.rememberDomain(ctx, st, logger)
		}
	case renderer.Err:
		logger.Error("rendering failed",
			"reason", res.Reason, "action", st.Action, "room", st.Room, "slots", turn.Slots)
		return failed(resp, MsgRenderFailed, "render failed"), nil
	default:
		logger.Error("renderer returned no result")
		return failed(resp, MsgRenderFailed, "render failed"), nil
	}

	logger.Info("dispatch complete", "stage", st.Stage, "duration", time.Since(start))
	return resp, nil
}

// onboard continues an active wizard dialogue or starts one for an unseen
// device opening a session. Store read failures skip onboarding for this
// turn.
func (d *Dispatcher) onboard(ctx context.Context, turn *message.Turn, logger *slog.Logger) *wizard.Reply {
	if d.wizard == nil || turn.DeviceID == "" {
		return nil
	}
	reply, err := d.wizard.Handle(ctx, turn.DeviceID, wizard.InputFrom(turn))
	if err != nil {
		logger.Warn("onboarding state unavailable, skipping", "error", err)
		return nil
	}
	if reply != nil || !turn.Launch {
		return reply
	}
	known, err := d.wizard.Known(ctx, turn.DeviceID)
	if err != nil {
		logger.Warn("device lookup failed, skipping onboarding", "error", err)
		return nil
	}
	if known {
		return nil
	}
	return d.wizard.Start(ctx, turn.DeviceID)
}

func (d *Dispatcher) rememberDomain(ctx context.Context, st resolver.State, logger *slog.Logger) {
	domain := st.Domain
	if domain == "" && resolver.IsDomain(st.Route) {
		domain = st.Route
	}
	if domain == "" {
		return
	}
	if err := d.kv.Set(ctx, store.KeyDomainPref, domain); err != nil {
		logger.Warn("saving domain preference failed", "error", err)
	}
}

func (d *Dispatcher) payload(turn *message.Turn, st resolver.State) renderer.Payload {
	p := renderer.Payload{
		TurnID:       turn.ID,
		DeviceID:     turn.DeviceID,
		Domain:       st.Domain,
		Action:       st.Action,
		Device:       st.Device,
		Room:         st.Room,
		Object:       turn.Slots.Object,
		CatchAll:     turn.Slots.CatchAll,
		Number:       st.Number,
		NumberText:   st.NumberText,
		Percent:      st.Percent,
		Power:        st.Power,
		TabID:        st.TabID,
		RichDisplay:  turn.RichDisplay,
		ExternalPage: st.External,
	}
	if turn.Event != nil {
		p.Event = *turn.Event
	}
	if st.RoomKnown {
		p.RoomName = d.resolver.Rooms().Display(st.Room)
	}
	return p
}

func failed(resp *message.Response, speech, reason string) *message.Response {
	resp.Speech = speech
	resp.Error = reason
	return resp
}
