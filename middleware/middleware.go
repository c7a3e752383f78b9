// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"fmt"

	"mediquick-backend/internal/auth"
)

// Mid bundles the dependencies the auth middleware needs.
type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (*Mid, error) {
	if keys == nil {
		return nil, fmt.Errorf("auth keys are nil")
	}
	return &Mid{keys: keys}, nil
}
