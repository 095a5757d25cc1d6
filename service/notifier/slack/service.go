// Package slack implements the notifier contract over the Slack Web API
// (chat.postMessage / chat.update) with Block Kit payloads. Only the
// delivery contract lives here - event intake, signatures and OAuth are the
// gateway's concern.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/viant/scy"

	"github.com/chrisk60331/slack-hitl-chat/service/notifier"
)

const defaultBaseURL = "https://slack.com/api"

// Config drives the Slack notifier.
type Config struct {
	// BaseURL overrides the Slack API endpoint, mainly for tests.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	// Token is the bot token; leave empty to reveal it from SecretsURL.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// SecretsURL points at an encrypted scy resource holding the bot token.
	SecretsURL string `json:"secretsURL,omitempty" yaml:"secretsURL,omitempty"`
	// SecretsKey is the scy encryption key, e.g. "blowfish://default".
	SecretsKey string `json:"secretsKey,omitempty" yaml:"secretsKey,omitempty"`
}

// Service posts and updates Slack messages.
type Service struct {
	config  Config
	client  *http.Client
	secrets *scy.Service

	mu    sync.Mutex
	token string
}

// New creates a Slack notifier.
func New(config Config) *Service {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &Service{
		config:  config,
		client:  &http.Client{Timeout: 10 * time.Second},
		secrets: scy.New(),
	}
}

var _ notifier.Service = (*Service)(nil)

func (s *Service) botToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	if s.config.Token != "" {
		s.token = s.config.Token
		return s.token, nil
	}
	if s.config.SecretsURL == "" {
		return "", fmt.Errorf("slack: no token and no secretsURL configured")
	}
	resource := scy.NewResource(nil, s.config.SecretsURL, s.config.SecretsKey)
	secret, err := s.secrets.Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("slack: failed to load token secret: %w", err)
	}
	s.token = secret.String()
	return s.token, nil
}

type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Channel string `json:"channel,omitempty"`
	TS      string `json:"ts,omitempty"`
}

func (s *Service) call(ctx context.Context, method string, payload map[string]interface{}) (*apiResponse, error) {
	token, err := s.botToken(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Content-Type", "application/json; charset=utf-8")
	response, err := s.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	var parsed apiResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("slack: %s returned unreadable response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("slack: %s failed: %s", method, parsed.Error)
	}
	return &parsed, nil
}

// Post sends a Block Kit message to a channel or thread.
func (s *Service) Post(ctx context.Context, recipient string, msg *notifier.Message) (notifier.MessageRef, error) {
	payload := map[string]interface{}{
		"channel": recipient,
		"text":    msg.Text,
		"blocks":  buildBlocks(msg),
	}
	parsed, err := s.call(ctx, "chat.postMessage", payload)
	if err != nil {
		return notifier.MessageRef{}, err
	}
	return notifier.MessageRef{Channel: parsed.Channel, Timestamp: parsed.TS}, nil
}

// Update rewrites a previously posted message.
func (s *Service) Update(ctx context.Context, ref notifier.MessageRef, msg *notifier.Message) error {
	payload := map[string]interface{}{
		"channel": ref.Channel,
		"ts":      ref.Timestamp,
		"text":    msg.Text,
		"blocks":  buildBlocks(msg),
	}
	_, err := s.call(ctx, "chat.update", payload)
	return err
}
