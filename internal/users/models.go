package users

import "time"

// Address is the user's delivery address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// User is the account record. PasswordHash never leaves this package.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	ContactNumber string    `json:"contact_number"`
	Address       Address   `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewUser is the signup payload.
type NewUser struct {
	Name          string  `json:"name" validate:"required,min=2"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	ContactNumber string  `json:"contact_number" validate:"required"`
	Address       Address `json:"address"`
}

// UpdateProfile carries the mutable profile fields.
type UpdateProfile struct {
	Name          string  `json:"name" validate:"required,min=2"`
	ContactNumber string  `json:"contact_number" validate:"required"`
	Address       Address `json:"address"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
