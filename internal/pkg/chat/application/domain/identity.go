package chat

// Role distinguishes the two parties of the support chat.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleStaff
}

// Identity is an authenticated party as the directory knows it.
// Immutable for the lifetime of a session; the chat core only reads it.
type Identity struct {
	ID          string `db:"id"`
	Role        Role   `db:"role"`
	DisplayName string `db:"display_name"`
	Phone       string `db:"phone"`
}
