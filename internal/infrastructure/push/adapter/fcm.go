package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"resto-chat/internal/infrastructure/push/port"
)

const fcmEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMSender posts notifications to the Firebase Cloud Messaging legacy HTTP
// endpoint. Mobile clients register their FCM tokens through the device
// endpoint, so this is the only delivery path needed.
type FCMSender struct {
	serverKey string
	client    *http.Client
	endpoint  string
}

// NewFCMSenderFromEnv constructs a sender using the FCM_SERVER_KEY env var.
func NewFCMSenderFromEnv() (*FCMSender, error) {
	key := os.Getenv("FCM_SERVER_KEY")
	if key == "" {
		return nil, errors.New("fcm: FCM_SERVER_KEY environment variable is not set")
	}
	return NewFCMSender(key), nil
}

func NewFCMSender(serverKey string) *FCMSender {
	return &FCMSender{
		serverKey: serverKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoint:  fcmEndpoint,
	}
}

var _ port.Sender = (*FCMSender)(nil)

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("fcm: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("fcm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fcm: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("fcm: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Discard is a Sender that drops every notification. Used when no FCM key is
// configured, typically local development.
type Discard struct{}

var _ port.Sender = Discard{}

func (Discard) Send(context.Context, string, string, string, map[string]string) error {
	return nil
}
