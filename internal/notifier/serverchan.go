package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/pkg/models"
)

const defaultServerChanURL = "https://sctapi.ftqq.com/{sendkey}.send"

// ServerChan pushes alerts through the ServerChan (sct.ftqq.com) API
type ServerChan struct {
	client    *resty.Client
	url       string
	templates config.TemplateConfig
}

var _ Notifier = (*ServerChan)(nil)

// serverChanResponse is the API reply; code 0 means delivered
type serverChanResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServerChan creates a ServerChan notifier
func NewServerChan(cfg config.ServerChanConfig, templates config.TemplateConfig) (*ServerChan, error) {
	if cfg.SendKey == "" {
		return nil, fmt.Errorf("sendkey is required")
	}

	url := strings.ReplaceAll(orDefault(cfg.URL, defaultServerChanURL), "{sendkey}", cfg.SendKey)

	return &ServerChan{
		client:    resty.New().SetTimeout(10 * time.Second),
		url:       url,
		templates: templates,
	}, nil
}

// Name implements Notifier
func (s *ServerChan) Name() string {
	return "server_chan"
}

// Send implements Notifier
func (s *ServerChan) Send(ctx context.Context, alert models.Alert) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"title": Render(orDefault(s.templates.Title, defaultTitle), alert),
			"desp":  Render(orDefault(s.templates.Content, defaultContent), alert),
		}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode(), resp.String())
	}

	var result serverChanResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if result.Code != 0 {
		msg := result.Message
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("server_chan rejected message (code %d): %s", result.Code, msg)
	}

	return nil
}
