package model

import "time"

// Roles stored in users.role.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// User is a registered customer.  AccountKey is a random secret generated
// at registration and never shown again.
type User struct {
	ID           uint64    `db:"id" json:"id"`                 // users.id
	Email        string    `db:"email" json:"email"`           // users.email
	FirstName    string    `db:"first_name" json:"first_name"` // users.first_name
	LastName     string    `db:"last_name" json:"last_name"`   // users.last_name
	PasswordHash string    `db:"password_hash" json:"-"`       // users.password_hash
	Role         string    `db:"role" json:"role"`             // users.role
	AccountKey   string    `db:"account_key" json:"-"`         // users.account_key
	IsActive     bool      `db:"is_active" json:"is_active"`   // users.is_active
	CreatedAt    time.Time `db:"created_at" json:"created_at"` // users.created_at
}

// DisplayName is the name printed on tickets.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return "Client"
	}
	return name
}
