package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/pkg/models"
)

const publishTimeout = 10 * time.Second

// MQTT publishes alerts to {topic_prefix}/{room_id}/low_power
type MQTT struct {
	client      mqtt.Client
	topicPrefix string
	templates   config.TemplateConfig
}

var (
	_ Notifier = (*MQTT)(nil)
	_ Closer   = (*MQTT)(nil)
)

// NewMQTT connects to the broker and returns an MQTT notifier
func NewMQTT(cfg config.MQTTConfig, templates config.TemplateConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(orDefault(cfg.ClientID, "dormwatch"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15*time.Second) {
		client.Disconnect(0) // stop the background connect retries
		return nil, fmt.Errorf("connecting to MQTT broker %s: timed out", cfg.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return newMQTTWithClient(client, cfg.TopicPrefix, templates), nil
}

func newMQTTWithClient(client mqtt.Client, topicPrefix string, templates config.TemplateConfig) *MQTT {
	return &MQTT{
		client:      client,
		topicPrefix: orDefault(topicPrefix, "dormwatch"),
		templates:   templates,
	}
}

// Name implements Notifier
func (m *MQTT) Name() string {
	return "mqtt"
}

// Topic returns the topic alerts for a room are published on
func (m *MQTT) Topic(roomID string) string {
	return fmt.Sprintf("%s/%s/low_power", m.topicPrefix, roomID)
}

// Send implements Notifier
func (m *MQTT) Send(ctx context.Context, alert models.Alert) error {
	payload := NewPayload(alert, orDefault(m.templates.Title, defaultTitle), orDefault(m.templates.Content, defaultContent))

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	token := m.client.Publish(m.Topic(alert.Room.ID), 1, false, body)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publishing to MQTT: timed out after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to MQTT: %w", err)
	}

	return nil
}

// Close disconnects from the MQTT broker
func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}
