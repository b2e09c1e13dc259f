package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/pkg/models"
)

const defaultWebhookTitle = "电量不足提醒"

// Payload is the JSON body sent to webhooks and MQTT
type Payload struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	DormName  string  `json:"dorm_name"`
	Power     float64 `json:"power"`
	Threshold float64 `json:"threshold"`
	DormID    string  `json:"dorm_id"`
	DormType  string  `json:"dorm_type"`
	Timestamp string  `json:"timestamp"`
}

// NewPayload renders the templates for an alert
func NewPayload(alert models.Alert, title, content string) Payload {
	return Payload{
		Title:     Render(title, alert),
		Content:   Render(content, alert),
		DormName:  alert.Room.Name,
		Power:     alert.Value,
		Threshold: alert.Threshold,
		DormID:    alert.Room.ID,
		DormType:  alert.Room.Type,
		Timestamp: alert.Timestamp.Format(time.RFC3339),
	}
}

// Webhook calls a user-defined HTTP endpoint
type Webhook struct {
	client   *resty.Client
	url      string
	method   string
	template config.TemplateConfig
}

var _ Notifier = (*Webhook)(nil)

// NewWebhook creates a webhook notifier
func NewWebhook(cfg config.WebhookConfig) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	method := strings.ToUpper(orDefault(cfg.Method, http.MethodPost))
	if method != http.MethodPost && method != http.MethodGet {
		return nil, fmt.Errorf("unsupported method %s (available: GET, POST)", method)
	}

	return &Webhook{
		client:   resty.New().SetTimeout(10 * time.Second).SetHeaders(cfg.Headers),
		url:      cfg.URL,
		method:   method,
		template: cfg.Template,
	}, nil
}

// Name implements Notifier
func (w *Webhook) Name() string {
	return "custom_webhook"
}

// Send implements Notifier
func (w *Webhook) Send(ctx context.Context, alert models.Alert) error {
	payload := NewPayload(alert, orDefault(w.template.Title, defaultWebhookTitle), w.template.Content)

	req := w.client.R().SetContext(ctx)

	var (
		resp *resty.Response
		err  error
	)
	if w.method == http.MethodPost {
		resp, err = req.SetBody(payload).Post(w.url)
	} else {
		resp, err = req.SetQueryParams(map[string]string{
			"title":     payload.Title,
			"content":   payload.Content,
			"dorm_name": payload.DormName,
			"power":     FormatPower(payload.Power),
			"threshold": FormatPower(payload.Threshold),
			"dorm_id":   payload.DormID,
			"dorm_type": payload.DormType,
			"timestamp": payload.Timestamp,
		}).Get(w.url)
	}
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode(), resp.String())
	}

	return nil
}
