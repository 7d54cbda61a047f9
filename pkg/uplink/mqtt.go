// Package uplink republishes pipeline events to the farm's MQTT
// backbone so off-site dashboards and recorders can consume them
// without a direct connection to the unit.
package uplink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fieldguard/go-fieldguard/pkg/event"
)

// topicPrefix is the root of the event topic tree:
// fieldguard/events/<event type>.
const topicPrefix = "fieldguard/events/"

// MQTT forwards bus events to an MQTT broker at QoS 1, matching the
// bus's at-least-once delivery.
type MQTT struct {
	client mqtt.Client
	sub    *event.Subscription
	logger *slog.Logger
	done   chan struct{}
}

// Connect dials the broker and returns an uplink ready to Run.
func Connect(broker, clientID string, bus *event.Bus, logger *slog.Logger) (*MQTT, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "uplink")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("broker connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("connected to broker", "broker", broker)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("uplink: connect %s: %w", broker, token.Error())
	}

	return &MQTT{
		client: client,
		sub:    bus.Subscribe("mqtt-uplink", 512),
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Run drains the bus subscription into the broker. Blocks until the
// subscription closes; call in a goroutine.
func (u *MQTT) Run() {
	defer close(u.done)
	for ev := range u.sub.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			u.logger.Error("failed to encode event", "type", ev.Type, "error", err)
			continue
		}
		token := u.client.Publish(topicPrefix+ev.Type, 1, false, payload)
		// Fire and observe: waiting here would backpressure into the
		// bus subscription buffer, which is exactly where we want slack.
		go func(t mqtt.Token, eventType string) {
			if t.Wait() && t.Error() != nil {
				u.logger.Warn("publish failed", "type", eventType, "error", t.Error())
			}
		}(token, ev.Type)
	}
}

// Close detaches from the bus, waits for the drain loop, and
// disconnects cleanly.
func (u *MQTT) Close() {
	u.sub.Close()
	<-u.done
	u.client.Disconnect(250)
	u.logger.Info("disconnected from broker")
}
