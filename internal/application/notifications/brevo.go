// Package notifications sends operational emails through Brevo (Sendinblue).
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	Tags        []string       `json:"tags,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MaintenanceNotice is what operations needs to triage a new request.
type MaintenanceNotice struct {
	RequestID   string
	UnitName    string
	Address     string
	Category    string
	Priority    int
	Description string
	CreatedAt   time.Time
}

// Notifier delivers operational notices. Implementations must be safe for
// concurrent use.
type Notifier interface {
	MaintenanceCreated(ctx context.Context, n MaintenanceNotice) error
}

// BrevoClient sends through the Brevo API. An empty APIKey or OpsEmail turns
// every send into a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	OpsEmail string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@propertyops.local"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, to, subject, html string, tags ...string) error {
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "PropertyOps"},
		To:          []BrevoContact{{Email: to}},
		Subject:     subject,
		HTMLContent: html,
		Tags:        tags,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *BrevoClient) MaintenanceCreated(ctx context.Context, n MaintenanceNotice) error {
	if c == nil || c.APIKey == "" || c.OpsEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("[P%d] New %s request: %s", n.Priority, n.Category, n.UnitName)
	return c.send(ctx, c.OpsEmail, subject, Layout(maintenanceContent(n)), "maintenance")
}
