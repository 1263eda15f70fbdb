package chat

import "time"

// Conversation is the single persistent thread between one customer and the
// collective staff pool. At most one staff-group conversation exists per
// customer; the store enforces that with a partial unique index, so the
// in-process code never has to lock around get-or-create.
type Conversation struct {
	ID            string     `db:"id"`
	CustomerID    *string    `db:"customer_id"` // nil only for the conceptual all-staff grouping
	IsStaffGroup  bool       `db:"is_staff_group"`
	CreatedAt     time.Time  `db:"created_at"`
	LastMessageAt *time.Time `db:"last_message_at"`
}

// ConversationSummary is the list-view projection of a conversation. It rides
// along with realtime events so clients can refresh their conversation lists
// from the payload alone, without a follow-up fetch.
type ConversationSummary struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

// Summarize builds the list-view projection from a conversation and the
// already-resolved customer identity.
func (c Conversation) Summarize(customer Identity) ConversationSummary {
	return ConversationSummary{
		ID:            c.ID,
		CustomerID:    customer.ID,
		CustomerName:  customer.DisplayName,
		CustomerPhone: customer.Phone,
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
	}
}
