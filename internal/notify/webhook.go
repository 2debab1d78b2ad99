package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// webhookPayload is the normalized JSON body POSTed to the configured URL.
type webhookPayload struct {
	Type         string `json:"type"`
	Notification struct {
		ID           string `json:"id"`
		TicketID     string `json:"ticketId"`
		TicketNumber string `json:"ticketNumber"`
		AlertType    string `json:"alertType"`
		Severity     string `json:"severity"`
		Message      string `json:"message"`
		Priority     string `json:"priority"`
		Timestamp    string `json:"timestamp"`
	} `json:"notification"`
}

type webhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates the outbound webhook channel. A nil client falls
// back to a short-timeout default.
func NewWebhookSender(url string, client *http.Client) Sender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &webhookSender{url: url, client: client}
}

func (s *webhookSender) Channel() Channel { return ChannelWebhook }

func (s *webhookSender) Send(ctx context.Context, n *Notification) error {
	if s.url == "" {
		return ErrChannelNotConfigured
	}

	var payload webhookPayload
	payload.Type = "sla_notification"
	payload.Notification.ID = n.ID
	payload.Notification.TicketID = n.Alert.TicketID
	payload.Notification.TicketNumber = n.Alert.TicketNumber
	payload.Notification.AlertType = string(n.Alert.Type)
	payload.Notification.Severity = string(n.Alert.Severity)
	payload.Notification.Message = n.Alert.Message
	payload.Notification.Priority = string(n.Alert.Priority)
	payload.Notification.Timestamp = n.Alert.Timestamp.UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
