package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a storefront account. Admins are configured, not registered.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	Name              string    `json:"name"`
	CPF               string    `json:"cpf,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Address           *Address  `json:"address,omitempty"`
	AcceptsNewsletter bool      `json:"acceptsNewsletter"`
	PasswordHash      string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}
