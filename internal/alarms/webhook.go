package alarms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"geo-alert-engine/internal/event"
)

// WebhookAlarm posts the data bag as JSON to a fixed URL.
type WebhookAlarm struct {
	name    string
	url     string
	startup bool
	client  *http.Client
}

func NewWebhook(name, url string, startup bool) *WebhookAlarm {
	return &WebhookAlarm{name: name, url: url, startup: startup}
}

func (w *WebhookAlarm) Connect() error {
	w.client = &http.Client{Timeout: 10 * time.Second}
	return nil
}

func (w *WebhookAlarm) StartupMessage() error {
	if !w.startup {
		return nil
	}
	return w.post(map[string]string{
		"kind":    "startup",
		"message": fmt.Sprintf("alarm %s is online", w.name),
	})
}

func (w *WebhookAlarm) Deliver(kind event.Kind, bag map[string]string) error {
	payload := make(map[string]string, len(bag)+1)
	for k, v := range bag {
		payload[k] = v
	}
	payload["kind"] = string(kind)
	return w.post(payload)
}

func (w *WebhookAlarm) post(payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", w.name, resp.StatusCode)
	}
	return nil
}
