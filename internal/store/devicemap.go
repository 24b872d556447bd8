package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrUnknownDevice is returned when updating a device that has no record.
var ErrUnknownDevice = errors.New("store: unknown device")

// Device is the persisted record of one voice endpoint.
type Device struct {
	ID        string `json:"-"`
	Location  string `json:"location"`
	HasScreen bool   `json:"apl"`
	IsNew     bool   `json:"isNew"`
	Created   string `json:"created"`
	Stage     string `json:"stage,omitempty"`
}

// DeviceMap persists device records keyed by device id.
type DeviceMap interface {
	Lookup(ctx context.Context, id string) (Device, bool, error)
	Create(ctx context.Context, id string, created time.Time) (Device, error)
	UpdateLocation(ctx context.Context, id, location string) error
	UpdateScreenFlag(ctx context.Context, id string, hasScreen bool) error
	SetStage(ctx context.Context, id, stage string) error
}

// blob implements DeviceMap on top of a load/save pair for the whole map.
type blob struct {
	mu   sync.Mutex
	load func(ctx context.Context) (map[string]Device, error)
	save func(ctx context.Context, m map[string]Device) error
}

func (b *blob) Lookup(ctx context.Context, id string) (Device, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load(ctx)
	if err != nil {
		return Device{}, false, err
	}
	d, ok := m[id]
	d.ID = id
	return d, ok, nil
}

func (b *blob) Create(ctx context.Context, id string, created time.Time) (Device, error) {
	d := Device{ID: id, IsNew: true, Created: created.UTC().Format(time.RFC3339)}
	err := b.mutate(ctx, func(m map[string]Device) error {
		m[id] = d
		return nil
	})
	return d, err
}

func (b *blob) UpdateLocation(ctx context.Context, id, location string) error {
	return b.update(ctx, id, func(d *Device) { d.Location = location })
}

func (b *blob) UpdateScreenFlag(ctx context.Context, id string, hasScreen bool) error {
	return b.update(ctx, id, func(d *Device) {
		d.HasScreen = hasScreen
		d.IsNew = false
	})
}

func (b *blob) SetStage(ctx context.Context, id, stage string) error {
	return b.update(ctx, id, func(d *Device) { d.Stage = stage })
}

func (b *blob) update(ctx context.Context, id string, fn func(*Device)) error {
	return b.mutate(ctx, func(m map[string]Device) error {
		d, ok := m[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
		}
		fn(&d)
		m[id] = d
		return nil
	})
}

func (b *blob) mutate(ctx context.Context, fn func(map[string]Device) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return b.save(ctx, m)
}

func decodeMap(data []byte) (map[string]Device, error) {
	m := make(map[string]Device)
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding device map: %w", err)
	}
	return m, nil
}

// NewKVDeviceMap stores the device map as one JSON blob in the
// KeyDeviceMap slot of kv.
func NewKVDeviceMap(kv KV) DeviceMap {
	return &blob{
		load: func(ctx context.Context) (map[string]Device, error) {
			raw, err := kv.Get(ctx, KeyDeviceMap)
			if err != nil {
				return nil, fmt.Errorf("loading device map: %w", err)
			}
			return decodeMap([]byte(raw))
		},
		save: func(ctx context.Context, m map[string]Device) error {
			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("encoding device map: %w", err)
			}
			if err := kv.Set(ctx, KeyDeviceMap, string(data)); err != nil {
				return fmt.Errorf("saving device map: %w", err)
			}
			return nil
		},
	}
}

// NewFileDeviceMap keeps the device map in a local JSON file. It is the
// fallback when the KV store is unreachable.
func NewFileDeviceMap(path string) DeviceMap {
	return &blob{
		load: func(context.Context) (map[string]Device, error) {
			data, err := os.ReadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				return make(map[string]Device), nil
			}
			if err != nil {
				return nil, fmt.Errorf("reading device map: %w", err)
			}
			return decodeMap(data)
		},
		save: func(_ context.Context, m map[string]Device) error {
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding device map: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating device map dir: %w", err)
			}
			tmp := path + ".tmp"
			if err := os.WriteFile(tmp, data, 0o600); err != nil {
				return fmt.Errorf("writing device map: %w", err)
			}
			if err := os.Rename(tmp, path); err != nil {
				return fmt.Errorf("replacing device map: %w", err)
			}
			return nil
		},
	}
}

// SelectDeviceMap returns the KV-backed device map when kv answers a ping
// and the file-backed fallback otherwise.
func SelectDeviceMap(ctx context.Context, kv KV, fallbackPath string) DeviceMap {
	if kv == nil {
		return NewFileDeviceMap(fallbackPath)
	}
	if err := kv.Ping(ctx); err != nil {
		slog.Warn("kv store unreachable, using file device map", "path", fallbackPath, "error", err)
		return NewFileDeviceMap(fallbackPath)
	}
	return NewKVDeviceMap(kv)
}
