package port

import "context"

// Sender delivers one push notification to one device token. Implementations
// are fire-and-forget collaborators: the chat core logs failures and moves
// on, it never retries or surfaces them to clients.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
