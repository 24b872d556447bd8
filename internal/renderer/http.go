package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTP posts payloads as JSON to a renderer endpoint per route.
//
// The response body must be an envelope
//
//	{"ok": true, "data": {"speech": "..."}, "flags": {"setDomainFlag": true}}
//
// Anything else is an Err.
type HTTP struct {
	base      string
	endpoints map[string]string
	token     string
	client    *http.Client
}

// NewHTTP creates an HTTP renderer. endpoints maps route names to URLs;
// routes without an entry are posted to base + "/" + route.
func NewHTTP(base string, endpoints map[string]string, token string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{
		base:      strings.TrimRight(base, "/"),
		endpoints: endpoints,
		token:     token,
		client:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	OK    bool   `json:"ok"`
	Data  *Data  `json:"data"`
	Flags Flags  `json:"flags"`
	Error string `json:"error"`
}

// Render posts p to the endpoint of route.
func (h *HTTP) Render(ctx context.Context, route string, p Payload) Result {
	url, ok := h.endpoints[route]
	if !ok {
		if h.base == "" {
			return Err{Reason: fmt.Sprintf("no renderer endpoint for route %q", route)}
		}
		url = h.base + "/" + route
	}

	body, err := json.Marshal(p)
	if err != nil {
		return Err{Reason: fmt.Sprintf("marshalling payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Err{Reason: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Err{Reason: fmt.Sprintf("renderer request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Err{Reason: fmt.Sprintf("renderer failed (status %d): %s", resp.StatusCode, respBody)}
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil {
		return Err{Reason: fmt.Sprintf("decoding renderer response: %v", err)}
	}
	if !env.OK {
		if env.Error == "" {
			env.Error = "renderer returned ok=false"
		}
		return Err{Reason: env.Error}
	}
	if env.Data == nil {
		return Err{Reason: "renderer response has no data"}
	}

	slog.Debug("renderer call complete", "route", route, "status", resp.StatusCode, "speech_length", len(env.Data.Speech))
	return Ok{Data: *env.Data, Flags: env.Flags}
}
