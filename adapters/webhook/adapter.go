// Package webhook delivers picker decisions to the embedding application.
// The HTTP session server has no in-process host, so the three host
// callbacks (plan picked, log in, log out) are posted to a webhook instead.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"plan-picker/core/types"
)

// Format is the body layout of a delivery
type Format string

const (
	FormatJSON  Format = "json"
	FormatSlack Format = "slack"
)

// SignatureHeader carries the hex HMAC-SHA256 of the body
const SignatureHeader = "X-Picker-Signature"

// Config configures webhook behavior
type Config struct {
	// Endpoint URL
	Endpoint string `json:"endpoint"`

	// Format of the body
	Format Format `json:"format"`

	// Secret for signing deliveries
	Secret string `json:"secret"`

	// Headers to include
	Headers map[string]string `json:"headers"`

	// Timeout for requests
	Timeout time.Duration `json:"timeout"`

	// RetryCount for failed requests
	RetryCount int `json:"retry_count"`

	// RetryDelay between retries
	RetryDelay time.Duration `json:"retry_delay"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig(endpoint string) *Config {
	return &Config{
		Endpoint:   endpoint,
		Format:     FormatJSON,
		Timeout:    10 * time.Second,
		RetryCount: 3,
		RetryDelay: 1 * time.Second,
		Headers:    make(map[string]string),
	}
}

// Event names one host callback
type Event string

const (
	EventPlanPicked Event = "plan.picked"
	EventCancelled  Event = "picker.cancelled"
	EventLogIn      Event = "account.log_in"
	EventLogOut     Event = "account.log_out"
)

// Payload is the webhook payload
type Payload struct {
	Event     Event          `json:"event"`
	SessionID string         `json:"session_id"`
	PlanCode  types.PlanCode `json:"plan_code,omitempty"`
	Email     string         `json:"email,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Adapter is the webhook adapter
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// New creates a new webhook adapter
func New(config *Config) *Adapter {
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Send sends the webhook, retrying failed attempts
func (a *Adapter) Send(ctx context.Context, payload *Payload) error {
	var lastErr error

	for attempt := 0; attempt <= a.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.RetryDelay):
			}
		}

		if err := a.sendOnce(ctx, payload); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", a.config.RetryCount+1, lastErr)
}

func (a *Adapter) sendOnce(ctx context.Context, payload *Payload) error {
	body, err := a.formatPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to format payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Picker-Event", string(payload.Event))
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
	if a.config.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(body, a.config.Secret))
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (a *Adapter) formatPayload(payload *Payload) ([]byte, error) {
	if a.config.Format == FormatSlack {
		return formatSlack(payload)
	}
	return json.Marshal(payload)
}

func formatSlack(payload *Payload) ([]byte, error) {
	var text string
	switch payload.Event {
	case EventPlanPicked:
		text = fmt.Sprintf("Plan picked: *%s*", payload.PlanCode)
	case EventCancelled:
		text = "Plan picker closed without a plan"
	case EventLogIn:
		text = "Log in requested from the plan picker"
	case EventLogOut:
		text = fmt.Sprintf("Log out requested for %s", payload.Email)
	default:
		text = string(payload.Event)
	}

	return json.Marshal(map[string]interface{}{
		"text": text,
		"attachments": []map[string]interface{}{
			{
				"footer": "session " + payload.SessionID,
				"ts":     payload.Timestamp.Unix(),
			},
		},
	})
}

// Sign returns the hex HMAC-SHA256 of payload
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies a delivery signature, with or without the
// "sha256=" prefix
func VerifySignature(payload []byte, signature, secret string) bool {
	if len(signature) > 7 && signature[:7] == "sha256=" {
		signature = signature[7:]
	}
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
