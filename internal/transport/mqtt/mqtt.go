// Package mqtt implements the MQTT transport for roomcall.
//
// MQTT suits wall panels and small satellites that already talk to the home
// broker. This transport subscribes to a configurable topic and publishes
// each response to "<topic>/reply", or to the turn's own reply topic when
// that lies below the configured reply prefix.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nadzzz/roomcall/internal/message"
	"github.com/nadzzz/roomcall/internal/transport"
)

const connectTimeout = 10 * time.Second

// Options configure the MQTT client.
type Options struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte

	// ReplyPrefix bounds the reply topics a turn may ask for. Defaults to
	// the reply topic itself.
	ReplyPrefix string
}

// Transport implements transport.Transport over MQTT.
type Transport struct {
	opts Options

	mu     sync.Mutex
	client paho.Client
}

// New creates a new MQTT transport.
func New(opts Options) *Transport {
	if opts.ClientID == "" {
		opts.ClientID = "roomcall-" + uuid.NewString()[:8]
	}
	if opts.ReplyPrefix == "" {
		opts.ReplyPrefix = opts.Topic + "/reply"
	}
	return &Transport{opts: opts}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// ReplyTopic is the default topic responses are published to.
func (t *Transport) ReplyTopic() string { return t.opts.Topic + "/reply" }

// Listen connects to the MQTT broker and subscribes to the configured topic.
// Subscriptions are renewed on every reconnect.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	if t.opts.Broker == "" || t.opts.Topic == "" {
		return errors.New("mqtt: broker and topic are required")
	}

	co := paho.NewClientOptions().
		AddBroker(t.opts.Broker).
		SetClientID(t.opts.ClientID).
		SetUsername(t.opts.Username).
		SetPassword(t.opts.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(c paho.Client) {
			tok := c.Subscribe(t.opts.Topic, t.opts.QoS, t.onMessage(ctx, handler))
			if tok.WaitTimeout(connectTimeout) && tok.Error() != nil {
				slog.Error("mqtt subscribe failed", "topic", t.opts.Topic, "error", tok.Error())
				return
			}
			slog.Info("mqtt subscribed", "topic", t.opts.Topic)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("mqtt connection lost", "error", err)
		})

	client := paho.NewClient(co)
	t.mu.Lock()
	t.client = client
	t.mu.Unlock()

	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect: timed out after %s", connectTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	slog.Info("mqtt transport listening", "broker", t.opts.Broker, "topic", t.opts.Topic)
	<-ctx.Done()
	return nil
}

func (t *Transport) onMessage(ctx context.Context, handler transport.Handler) paho.MessageHandler {
	return func(c paho.Client, m paho.Message) {
		topic, body, err := t.process(ctx, handler, m.Payload())
		if err != nil {
			slog.Warn("mqtt message dropped", "topic", m.Topic(), "error", err)
			return
		}
		tok := c.Publish(topic, t.opts.QoS, false, body)
		if tok.WaitTimeout(connectTimeout) && tok.Error() != nil {
			slog.Error("mqtt publish failed", "topic", topic, "error", tok.Error())
		}
	}
}

// process decodes one turn, dispatches it and returns the reply topic and
// encoded response.
func (t *Transport) process(ctx context.Context, handler transport.Handler, payload []byte) (string, []byte, error) {
	var turn message.Turn
	if err := json.Unmarshal(payload, &turn); err != nil {
		return "", nil, fmt.Errorf("decoding turn: %w", err)
	}

	topic := t.replyTopic(turn.ReplyTo)
	if turn.ReplyTo != "" && topic != turn.ReplyTo {
		slog.Warn("mqtt reply topic rejected", "turn_id", turn.ID, "reply_to", turn.ReplyTo, "prefix", t.opts.ReplyPrefix)
	}

	resp, err := handler(ctx, &turn)
	if err != nil {
		slog.Error("dispatch failed", "turn_id", turn.ID, "error", err)
		resp = &message.Response{TurnID: turn.ID, Error: "dispatch error"}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return "", nil, fmt.Errorf("encoding response: %w", err)
	}
	return topic, body, nil
}

// replyTopic returns requested when it is a plain topic at or below the
// reply prefix, otherwise the default reply topic.
func (t *Transport) replyTopic(requested string) string {
	prefix := strings.TrimSuffix(t.opts.ReplyPrefix, "/")
	switch {
	case requested == "", strings.ContainsAny(requested, "+#"):
		return t.ReplyTopic()
	case requested == prefix, strings.HasPrefix(requested, prefix+"/"):
		return requested
	}
	return t.ReplyTopic()
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
	return nil
}
