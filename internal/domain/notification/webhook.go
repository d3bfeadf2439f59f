package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SecretGetter fetches the webhook signing secret. *secretcache.Cache from
// aws-secretsmanager-caching-go satisfies this.
type SecretGetter interface {
	GetSecretString(secretID string) (string, error)
}

// WebhookSender POSTs notifications to a configured endpoint, signing each
// payload with HMAC-SHA256 so the receiver can verify origin.
type WebhookSender struct {
	url      string
	secretID string
	secrets  SecretGetter
	client   *http.Client
}

// NewWebhookSender creates a new webhook sender
func NewWebhookSender(url, secretID string, secrets SecretGetter) *WebhookSender {
	return &WebhookSender{
		url:      url,
		secretID: secretID,
		secrets:  secrets,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one notification. No retry: delivery is advisory.
func (w *WebhookSender) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	secret, err := w.secrets.GetSecretString(w.secretID)
	if err != nil {
		return fmt.Errorf("failed to fetch webhook secret: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Homeledger-Signature", Sign(body, secret))

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature of a payload
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
