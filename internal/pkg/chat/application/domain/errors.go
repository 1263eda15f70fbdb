package chat

import "errors"

// Domain-level errors for chat behaviors. All of them are local to the sender
// of the offending event; none is ever broadcast to other parties.
var (
	ErrInvalidConversation = errors.New("chat: conversation/message mismatch")
	ErrEmptyBody           = errors.New("chat: message body is empty")
	ErrMissingCustomer     = errors.New("chat: target customer is required for staff messages")
	ErrUnknownCustomer     = errors.New("chat: target customer does not exist")
	ErrUnauthenticated     = errors.New("chat: connection has no registered session")
	ErrInvalidRole         = errors.New("chat: unknown identity role")
)
