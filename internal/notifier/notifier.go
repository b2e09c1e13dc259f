// Package notifier delivers low-power alerts through the configured channels.
package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/pkg/models"
)

// Notifier delivers an alert through one channel
type Notifier interface {
	// Name identifies the channel in logs and metrics
	Name() string

	// Send returns an error if delivery failed
	Send(ctx context.Context, alert models.Alert) error
}

// Closer is implemented by notifiers holding connections
type Closer interface {
	Close()
}

// FromConfig builds every enabled notifier, in a fixed order
func FromConfig(cfg *config.Config, logger *zap.Logger) ([]Notifier, error) {
	var notifiers []Notifier
	n := cfg.Notifications

	if n.ServerChan.Enabled {
		sc, err := NewServerChan(n.ServerChan, cfg.Templates)
		if err != nil {
			return nil, fmt.Errorf("creating server_chan notifier: %w", err)
		}
		notifiers = append(notifiers, sc)
	}

	if n.CustomWebhook.Enabled {
		wh, err := NewWebhook(n.CustomWebhook)
		if err != nil {
			return nil, fmt.Errorf("creating custom_webhook notifier: %w", err)
		}
		notifiers = append(notifiers, wh)
	}

	if n.MQTT.Enabled {
		mq, err := NewMQTT(n.MQTT, cfg.Templates)
		if err != nil {
			CloseAll(notifiers)
			return nil, fmt.Errorf("creating mqtt notifier: %w", err)
		}
		notifiers = append(notifiers, mq)
	}

	names := make([]string, 0, len(notifiers))
	for _, nt := range notifiers {
		names = append(names, nt.Name())
	}
	logger.Info("notifiers configured", zap.Strings("channels", names))

	return notifiers, nil
}

// CloseAll releases connections held by any of the notifiers
func CloseAll(notifiers []Notifier) {
	for _, n := range notifiers {
		if c, ok := n.(Closer); ok {
			c.Close()
		}
	}
}
