package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/roomcall/internal/message"
)

func echo(_ context.Context, turn *message.Turn) (*message.Response, error) {
	return &message.Response{TurnID: turn.ID, Room: turn.Slots.Room, Speech: "ok"}, nil
}

func TestPostTurn(t *testing.T) {
	srv := httptest.NewServer(New(0).Handler(echo))
	defer srv.Close()

	body := `{"id":"t1","device_id":"echo-1","slots":{"action":"ein","room":"büro"}}`
	resp, err := http.Post(srv.URL+"/turn", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got message.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "t1", got.TurnID)
	assert.Equal(t, "büro", got.Room)
}

func TestPostTurnErrors(t *testing.T) {
	failing := func(context.Context, *message.Turn) (*message.Response, error) {
		return nil, errors.New("boom")
	}

	tests := []struct {
		name    string
		handler func(context.Context, *message.Turn) (*message.Response, error)
		body    string
		status  int
	}{
		{"invalid json", echo, `{"slots":`, http.StatusBadRequest},
		{"handler error", failing, `{}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(New(0).Handler(tt.handler))
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/turn", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			b, _ := io.ReadAll(resp.Body)
			assert.NotContains(t, string(b), "boom")
		})
	}
}

func TestWrongMethod(t *testing.T) {
	srv := httptest.NewServer(New(0).Handler(echo))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/turn")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSwaggerDoc(t *testing.T) {
	srv := httptest.NewServer(New(0).Handler(echo))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Contains(t, doc["paths"], "/turn")
}

func TestCloseWithoutListen(t *testing.T) {
	assert.NoError(t, New(0).Close())
}

func TestCloseStopsListen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, closeFirst := range []bool{true, false} {
		tr := New(0)
		done := make(chan error, 1)
		if closeFirst {
			require.NoError(t, tr.Close())
		}
		go func() { done <- tr.Listen(ctx, echo) }()
		if !closeFirst {
			require.NoError(t, tr.Close())
		}

		select {
		case err := <-done:
			assert.NoError(t, err, "close first: %v", closeFirst)
		case <-time.After(5 * time.Second):
			t.Fatalf("listen kept running after close (close first: %v)", closeFirst)
		}
	}
}
