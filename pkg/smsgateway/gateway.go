// Package smsgateway delivers template-based SMS messages (OTP codes,
// winner notices) through KavehNegar's verify/lookup API.
package smsgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/haramapp/lottery-backend/internal/config"
)

// sendTimeout bounds every outbound delivery attempt
const sendTimeout = 10 * time.Second

// Gateway represents an SMS delivery gateway. Implementations send the
// token through the named template to the receptor and return a provider
// message id.
type Gateway interface {
	SendTemplate(ctx context.Context, receptor, template, token string) (string, error)
}

// KavehNegarGateway talks to the KavehNegar lookup endpoint
type KavehNegarGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// MockGateway simulates deliveries for local development and staging
type MockGateway struct {
	Name string
}

// New selects the configured gateway implementation
func New(cfg *config.Config) Gateway {
	if cfg.SMS.Mock {
		return &MockGateway{Name: "KAVEHNEGAR"}
	}
	return NewKavehNegarGateway(cfg)
}

// NewKavehNegarGateway creates a new KavehNegar SMS gateway
func NewKavehNegarGateway(cfg *config.Config) *KavehNegarGateway {
	return &KavehNegarGateway{
		baseURL: cfg.SMS.BaseURL,
		apiKey:  cfg.SMS.APIKey,
		httpClient: &http.Client{
			Timeout: sendTimeout,
		},
	}
}

// lookupResponse mirrors the KavehNegar envelope:
//
//	{"return": {"status": 200, "message": "..."}, "entries": [{"messageid": ...}]}
type lookupResponse struct {
	Return struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"return"`
	Entries []struct {
		MessageID int64 `json:"messageid"`
	} `json:"entries"`
}

// SendTemplate sends the token through the named template
func (g *KavehNegarGateway) SendTemplate(ctx context.Context, receptor, template, token string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("kavehnegar api key is not configured")
	}
	if template == "" {
		return "", fmt.Errorf("sms template is not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/verify/lookup.json", g.baseURL, g.apiKey)
	form := url.Values{
		"receptor": {receptor},
		"template": {template},
		"token":    {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("kavehnegar request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("kavehnegar response read failed: %w", err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("kavehnegar returned status %d: %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode != http.StatusOK || parsed.Return.Status != http.StatusOK {
		return "", fmt.Errorf("kavehnegar error (status %d): %s", parsed.Return.Status, parsed.Return.Message)
	}

	if len(parsed.Entries) > 0 {
		return fmt.Sprintf("%d", parsed.Entries[0].MessageID), nil
	}
	return "", nil
}

// SendTemplate simulates a delivery and returns a mock message id
func (g *MockGateway) SendTemplate(_ context.Context, receptor, template, token string) (string, error) {
	msgID := fmt.Sprintf("%s-MOCK-MSG-%d", g.Name, time.Now().UnixNano())
	fmt.Printf("[%s Mock Gateway] Simulating SendTemplate to %s (template %s, token %s) -> %s\n",
		g.Name, receptor, template, token, msgID)
	return msgID, nil
}
