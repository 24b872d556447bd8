// Package renderer invokes the external renderers that turn a routed
// decision into speech and visual payloads.
//
// roomcall only decides what should happen; building the answer, and
// talking to devices, is the renderer's job. Each call is a single attempt.
package renderer

import (
	"context"
	"encoding/json"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/message"
)

// Payload is what a renderer receives for one routed turn.
type Payload struct {
	TurnID   string `json:"turn_id"`
	DeviceID string `json:"device_id"`

	Domain   string `json:"domain,omitempty"`
	Action   string `json:"action,omitempty"`
	Device   string `json:"device,omitempty"`
	Room     string `json:"room,omitempty"`
	RoomName string `json:"room_name,omitempty"`
	Object   string `json:"object,omitempty"`
	CatchAll string `json:"catch_all,omitempty"`

	Number     *float64 `json:"number,omitempty"`
	NumberText string   `json:"number_text,omitempty"`
	Percent    string   `json:"percent,omitempty"`
	Power      string   `json:"power,omitempty"`

	// TabID identifies the catalog tab for tab domains.
	TabID string `json:"tab_id,omitempty"`

	Event        message.Event         `json:"event"`
	RichDisplay  bool                  `json:"rich_display"`
	ExternalPage *catalog.ExternalPage `json:"external_page,omitempty"`
}

// Data is the renderer's answer.
type Data struct {
	Speech     string          `json:"speech"`
	Reprompt   string          `json:"reprompt,omitempty"`
	Card       json.RawMessage `json:"card,omitempty"`
	APL        json.RawMessage `json:"apl,omitempty"`
	Directives json.RawMessage `json:"directives,omitempty"`
}

// Flags ask roomcall to update its own state after rendering.
type Flags struct {
	// SetDomainFlag remembers the rendered domain for later turns.
	SetDomainFlag bool `json:"setDomainFlag,omitempty"`
	// SetSkillActive keeps the voice session open.
	SetSkillActive bool `json:"setSkillActive,omitempty"`
}

// Result is either Ok or Err.
type Result interface {
	isResult()
}

// Ok is a successful render.
type Ok struct {
	Data  Data
	Flags Flags
}

// Err is a failed render. Reason is for logs only.
type Err struct {
	Reason string
}

func (Ok) isResult()  {}
func (Err) isResult() {}

// Renderer renders one route.
type Renderer interface {
	Render(ctx context.Context, route string, p Payload) Result
}

// Func adapts a function to Renderer.
type Func func(ctx context.Context, route string, p Payload) Result

// Render calls f.
func (f Func) Render(ctx context.Context, route string, p Payload) Result {
	return f(ctx, route, p)
}
