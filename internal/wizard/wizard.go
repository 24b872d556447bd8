// Package wizard runs the two-step onboarding dialogue for voice endpoints
// roomcall has not seen before.
//
// The dialogue state lives in the device record (Stage) and is mirrored in
// the pending device pointer slots of the KV store. While a device has a
// non-empty stage every turn from it goes to the wizard.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/roomcall/internal/message"
	"github.com/nadzzz/roomcall/internal/store"
	"github.com/nadzzz/roomcall/internal/textnorm"
)

// Stages.
const (
	StageIdle        = ""
	StageAwaitName   = "await_name"
	StageAwaitScreen = "await_screen"
)

const (
	msgAskName   = "Ich kenne dieses Gerät noch nicht. In welchem Raum steht es?"
	msgAskScreen = "Hat das Gerät einen Bildschirm? Bitte antworte mit ja oder nein."
	msgAborted   = "Okay, die Einrichtung wurde abgebrochen."
	msgFailed    = "Entschuldigung, das konnte ich nicht speichern. Die Einrichtung wurde abgebrochen."
	msgReset     = "Der Assistent wurde zurückgesetzt."
)

var (
	abortWords = []string{"abbrechen", "abbruch", "zurueck", "fertig", "stopp", "stop", "ende", "beenden"}
	yesWords   = []string{"ja", "jawohl", "genau", "klar", "jep", "yes"}
	noWords    = []string{"nein", "nee", "noe", "no"}
)

// Input is the part of a turn the wizard looks at.
type Input struct {
	Slots  message.Slots
	Intent string
}

// InputFrom extracts the wizard input from a turn.
func InputFrom(t *message.Turn) Input {
	return Input{Slots: t.Slots, Intent: t.Intent}
}

// Reply is what the wizard wants said. An empty Reprompt means the
// dialogue is over.
type Reply struct {
	Speech   string
	Reprompt string
}

// Wizard drives the onboarding dialogue.
type Wizard struct {
	devices store.DeviceMap
	kv      store.KV
	now     func() time.Time
}

// New creates a Wizard persisting records in devices and the pending
// pointer in kv.
func New(devices store.DeviceMap, kv store.KV) *Wizard {
	return &Wizard{devices: devices, kv: kv, now: time.Now}
}

// Known reports whether deviceID has a device record. A record left idle
// before a room was ever captured counts as unknown, so onboarding starts
// over on the next contact.
func (w *Wizard) Known(ctx context.Context, deviceID string) (bool, error) {
	d, ok, err := w.devices.Lookup(ctx, deviceID)
	if err != nil {
		return false, fmt.Errorf("looking up device %s: %w", deviceID, err)
	}
	if ok && d.IsNew && d.Location == "" && d.Stage == StageIdle {
		return false, nil
	}
	return ok, nil
}

// Start creates the record for deviceID and opens the dialogue.
// Persistence failures end the dialogue with an apology.
func (w *Wizard) Start(ctx context.Context, deviceID string) *Reply {
	log := slog.With("device_id", deviceID)

	if _, err := w.devices.Create(ctx, deviceID, w.now()); err != nil {
		return w.fail(ctx, log, deviceID, err)
	}
	if err := w.advance(ctx, deviceID, StageAwaitName); err != nil {
		return w.fail(ctx, log, deviceID, err)
	}

	log.Info("onboarding started")
	return &Reply{Speech: msgAskName, Reprompt: msgAskName}
}

// Handle feeds one turn to the dialogue of deviceID. It returns nil when
// the device has no active dialogue.
func (w *Wizard) Handle(ctx context.Context, deviceID string, in Input) (*Reply, error) {
	d, ok, err := w.devices.Lookup(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("looking up device %s: %w", deviceID, err)
	}
	if !ok || d.Stage == StageIdle {
		return nil, nil
	}

	log := slog.With("device_id", deviceID, "stage", d.Stage)

	switch d.Stage {
	case StageAwaitName:
		return w.awaitName(ctx, log, d, in), nil
	case StageAwaitScreen:
		return w.awaitScreen(ctx, log, d, in), nil
	default:
		log.Error("unknown onboarding stage, resetting")
		w.Reset(ctx, deviceID)
		return &Reply{Speech: msgReset}, nil
	}
}

// Reset closes the dialogue of deviceID and clears the pending pointer.
// It is best effort; failures are logged.
func (w *Wizard) Reset(ctx context.Context, deviceID string) {
	if err := w.devices.SetStage(ctx, deviceID, StageIdle); err != nil {
		slog.Warn("clearing onboarding stage", "device_id", deviceID, "error", err)
	}
	for _, key := range []string{store.KeyPendingDeviceID, store.KeyPendingStage} {
		if err := w.kv.Set(ctx, key, ""); err != nil {
			slog.Warn("clearing pending pointer", "key", key, "error", err)
		}
	}
}

func (w *Wizard) awaitName(ctx context.Context, log *slog.Logger, d store.Device, in Input) *Reply {
	s := in.Slots
	if hasWord(abortWords, s.Action, s.CatchAll, s.Room, s.Device) {
		log.Info("onboarding aborted")
		w.Reset(ctx, d.ID)
		return &Reply{Speech: msgAborted}
	}

	name := sanitize(firstNonEmpty(s.Room, s.Device, s.CatchAll, s.Action))
	if name == "" {
		return &Reply{Speech: msgAskName, Reprompt: msgAskName}
	}

	if err := w.devices.UpdateLocation(ctx, d.ID, name); err != nil {
		return w.fail(ctx, log, d.ID, err)
	}
	if err := w.advance(ctx, d.ID, StageAwaitScreen); err != nil {
		return w.fail(ctx, log, d.ID, err)
	}

	log.Info("onboarding location captured", "location", name)
	return &Reply{
		Speech:   fmt.Sprintf("Alles klar, %s. %s", name, msgAskScreen),
		Reprompt: msgAskScreen,
	}
}

func (w *Wizard) awaitScreen(ctx context.Context, log *slog.Logger, d store.Device, in Input) *Reply {
	hasScreen, ok := yesNo(in)
	if !ok {
		return &Reply{Speech: msgAskScreen, Reprompt: msgAskScreen}
	}

	if err := w.devices.UpdateScreenFlag(ctx, d.ID, hasScreen); err != nil {
		return w.fail(ctx, log, d.ID, err)
	}
	w.Reset(ctx, d.ID)

	log.Info("onboarding complete", "location", d.Location, "has_screen", hasScreen)
	with := "ohne"
	if hasScreen {
		with = "mit"
	}
	return &Reply{Speech: fmt.Sprintf("Danke. Das Gerät in %s ist jetzt eingerichtet, %s Bildschirm.", d.Location, with)}
}

func (w *Wizard) advance(ctx context.Context, deviceID, stage string) error {
	if err := w.devices.SetStage(ctx, deviceID, stage); err != nil {
		return fmt.Errorf("setting stage: %w", err)
	}
	if err := w.kv.Set(ctx, store.KeyPendingDeviceID, deviceID); err != nil {
		return fmt.Errorf("setting pending device: %w", err)
	}
	if err := w.kv.Set(ctx, store.KeyPendingStage, stage); err != nil {
		return fmt.Errorf("setting pending stage: %w", err)
	}
	return nil
}

func (w *Wizard) fail(ctx context.Context, log *slog.Logger, deviceID string, err error) *Reply {
	log.Error("onboarding persistence failed", "error", err)
	w.Reset(ctx, deviceID)
	return &Reply{Speech: msgFailed}
}

func yesNo(in Input) (bool, bool) {
	switch {
	case strings.HasSuffix(in.Intent, "YesIntent"):
		return true, true
	case strings.HasSuffix(in.Intent, "NoIntent"):
		return false, true
	}
	s := in.Slots
	// "nein" first so "nein, ja doch nicht" stays a no.
	if hasWord(noWords, s.Action, s.CatchAll, s.Room) {
		return false, true
	}
	if hasWord(yesWords, s.Action, s.CatchAll, s.Room) {
		return true, true
	}
	return false, false
}

func hasWord(words []string, fields ...string) bool {
	hay := textnorm.MatchKey(strings.Join(fields, " "))
	if hay == "" {
		return false
	}
	for _, w := range words {
		if textnorm.ContainsWord(hay, w) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var unquote = strings.NewReplacer(
	"\r", " ", "\n", " ", "\t", " ",
	`"`, "", "'", "", "„", "", "“", "", "”", "", "«", "", "»", "",
)

// sanitize makes a spoken name safe to repeat back.
func sanitize(s string) string {
	return strings.Join(strings.Fields(unquote.Replace(s)), " ")
}
