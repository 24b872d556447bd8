package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roomcall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.True(t, cfg.Transports.HTTP.Enabled)
	assert.Equal(t, 8080, cfg.Transports.HTTP.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 10*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, []string{"kueche", "bad"}, cfg.Resolver.PriorityRooms)
	assert.Equal(t, []string{"geraete", "bewaesserung"}, cfg.Resolver.TabDomains)
	assert.True(t, cfg.Onboarding.Enabled)
	assert.Equal(t, "configs/catalog.yaml", cfg.Catalog.Path)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
transports:
  grpc:
    enabled: true
    port: 6000
store:
  backend: redis
  url: redis://cache:6379/2
renderer:
  endpoint: http://renderer:9000
  timeout: 3s
  routes:
    external: http://pages:9100/render
resolver:
  priority_rooms: [bad]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Transports.GRPC.Enabled)
	assert.Equal(t, 6000, cfg.Transports.GRPC.Port)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/2", cfg.Store.URL)
	assert.Equal(t, 3*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, "http://pages:9100/render", cfg.Renderer.Routes["external"])
	assert.Equal(t, []string{"bad"}, cfg.Resolver.PriorityRooms)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROOMCALL_SERVER_HEALTH_PORT", "9999")
	t.Setenv("ROOMCALL_ONBOARDING_ENABLED", "false")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HealthPort)
	assert.False(t, cfg.Onboarding.Enabled)
}

func TestLoadResolvesEnvRefs(t *testing.T) {
	t.Setenv("TEST_RENDER_TOKEN", "s3cret")
	t.Setenv("TEST_REDIS_URL", "redis://secret-host:6379/0")

	cfg, err := Load(writeConfig(t, `
store:
  backend: redis
  url: ${TEST_REDIS_URL}
renderer:
  token: ${TEST_RENDER_TOKEN}
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Renderer.Token)
	assert.Equal(t, "redis://secret-host:6379/0", cfg.Store.URL)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "store:\n  backend: etcd\n"},
		{"redis without url", "store:\n  backend: redis\n"},
		{"bad qos", "transports:\n  mqtt:\n    qos: 3\n"},
		{"no renderer", "renderer:\n  endpoint: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("TEST_ROOMCALL_VAR", "value")
	assert.Equal(t, "value", resolveEnvRef("${TEST_ROOMCALL_VAR}"))
	assert.Equal(t, "${TEST_ROOMCALL_UNSET}", resolveEnvRef("${TEST_ROOMCALL_UNSET}"))
	assert.Equal(t, "plain", resolveEnvRef("plain"))
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(LoggingConfig{Level: "warn", Format: "text"}, &buf))

	logger.Info("hidden")
	logger.Warn("shown", "room", "bad")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "room=bad")

	buf.Reset()
	h := newHandler(LoggingConfig{Level: "debug"}, &buf)
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	slog.New(h).Debug("json")
	assert.Contains(t, buf.String(), `"msg":"json"`)
}
