// Package store persists the small amount of runtime state roomcall keeps
// between turns: the last domain preference, the onboarding pointer and the
// device map blob.
//
// All state lives in a handful of named string slots behind the KV
// interface. Memory and Redis backends are provided.
package store

import (
	"context"
	"errors"
)

// Named slots.
const (
	KeyDomainPref      = "domain_pref"
	KeyPendingDeviceID = "pending_device_id"
	KeyPendingStage    = "pending_stage"
	KeyDeviceMap       = "device_map"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("store: unavailable")

// KV is a string key-value store. Get returns "" for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}
