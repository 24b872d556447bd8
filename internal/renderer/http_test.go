package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRenderOK(t *testing.T) {
	var got Payload
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"data":{"speech":"Licht ist an","apl":{"type":"doc"}},"flags":{"setDomainFlag":true}}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/", nil, "secret", time.Second)
	res := h.Render(context.Background(), "licht", Payload{TurnID: "t1", Domain: "licht", Power: "on"})

	ok, isOK := res.(Ok)
	require.True(t, isOK, "got %#v", res)
	assert.Equal(t, "Licht ist an", ok.Data.Speech)
	assert.JSONEq(t, `{"type":"doc"}`, string(ok.Data.APL))
	assert.True(t, ok.Flags.SetDomainFlag)
	assert.Equal(t, "/licht", path)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "on", got.Power)
}

func TestHTTPRenderRouteEndpoint(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"ok":true,"data":{"speech":"ok"}}`))
	}))
	defer srv.Close()

	h := NewHTTP("", map[string]string{"external": srv.URL + "/pages"}, "", 0)
	_, isOK := h.Render(context.Background(), "external", Payload{}).(Ok)
	assert.True(t, isOK)
	assert.Equal(t, "/pages", path)

	res := h.Render(context.Background(), "licht", Payload{})
	assert.IsType(t, Err{}, res)
}

func TestHTTPRenderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusInternalServerError, `boom`},
		{"not ok", http.StatusOK, `{"ok":false,"error":"unknown tab"}`},
		{"malformed", http.StatusOK, `<html>`},
		{"missing data", http.StatusOK, `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := NewHTTP(srv.URL, nil, "", time.Second).Render(context.Background(), "licht", Payload{})
			e, isErr := res.(Err)
			require.True(t, isErr)
			assert.NotEmpty(t, e.Reason)
		})
	}
}

func TestFunc(t *testing.T) {
	var r Renderer = Func(func(_ context.Context, route string, _ Payload) Result {
		return Ok{Data: Data{Speech: route}}
	})
	assert.Equal(t, Ok{Data: Data{Speech: "x"}}, r.Render(context.Background(), "x", Payload{}))
}
