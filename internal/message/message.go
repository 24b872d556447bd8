// Package message defines the core data types flowing through the roomcall pipeline.
package message

import (
	"encoding/json"
	"strings"
	"time"
)

// Turn represents one incoming voice or touch request from any transport.
type Turn struct {
	// ID is a unique identifier for this turn (UUID). Assigned on receipt when empty.
	ID string `json:"id"`

	// DeviceID is the stable identifier of the voice endpoint that sent the turn.
	DeviceID string `json:"device_id"`

	// Launch is true when the turn opens a new session ("open the skill").
	Launch bool `json:"launch,omitempty"`

	// RichDisplay is true when the endpoint can render visual payloads.
	RichDisplay bool `json:"rich_display,omitempty"`

	// Intent is the platform intent name, if any (e.g., "AMAZON.YesIntent").
	Intent string `json:"intent,omitempty"`

	// Slots are the free-text values the voice platform extracted.
	Slots Slots `json:"slots"`

	// Event is set when the turn comes from a tap on the visual panel.
	Event *Event `json:"event,omitempty"`

	// ReplyTo is an optional transport-specific reply address (MQTT topic).
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp is when the turn was received.
	Timestamp time.Time `json:"timestamp"`
}

// Slots are the loosely filled values of a spoken request. Any of them may
// be empty, contradictory, or stale from the previous turn.
type Slots struct {
	Action   string `json:"action,omitempty"`
	Device   string `json:"device,omitempty"`
	Room     string `json:"room,omitempty"`
	Object   string `json:"object,omitempty"`
	Scene    string `json:"scene,omitempty"`
	Number   string `json:"number,omitempty"`
	Percent  string `json:"percent,omitempty"`
	CatchAll string `json:"catch_all,omitempty"`
}

// Text joins the free-text slots (everything but number and percent).
func (s Slots) Text() string {
	return strings.Join([]string{s.Action, s.Device, s.CatchAll, s.Object, s.Room, s.Scene}, " ")
}

// Event is a UI tap. Arg1 is conventionally "<domain>.<verb>[.<id>]".
type Event struct {
	Arg1 string `json:"arg1"`
	Arg2 string `json:"arg2,omitempty"`
	Arg3 string `json:"arg3,omitempty"`
}

// Parts splits Arg1 into domain, verb and id. Missing parts are empty.
func (e *Event) Parts() (domain, verb, id string) {
	if e == nil {
		return "", "", ""
	}
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(e.Arg1)), ".", 3)
	switch len(parts) {
	case 3:
		return parts[0], parts[1], parts[2]
	case 2:
		return parts[0], parts[1], ""
	default:
		return parts[0], "", ""
	}
}

// Response is the outcome of processing a turn, returned to the sender.
type Response struct {
	// TurnID is the original turn ID.
	TurnID string `json:"turn_id"`

	// Route is the renderer route that handled the turn (empty on clarification or failure).
	Route string `json:"route,omitempty"`

	// Domain and Device are the resolved targets.
	Domain string `json:"domain,omitempty"`
	Device string `json:"device,omitempty"`

	// Room is the resolved room key.
	Room string `json:"room,omitempty"`

	// Speech is the text to speak back to the user.
	Speech string `json:"speech"`

	// Reprompt is spoken when the user stays silent.
	Reprompt string `json:"reprompt,omitempty"`

	// Card, APL and Directives are passed through from the renderer untouched.
	Card       json.RawMessage `json:"card,omitempty"`
	APL        json.RawMessage `json:"apl,omitempty"`
	Directives json.RawMessage `json:"directives,omitempty"`

	// EndSession asks the voice platform to close the session.
	EndSession bool `json:"end_session,omitempty"`

	// Error is a short machine-readable reason when processing failed at any stage.
	Error string `json:"error,omitempty"`
}
