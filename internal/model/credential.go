package model

import (
	"strings"
	"time"
)

// Credential is the stored OAuth grant for one (user, service) pair.
type Credential struct {
	UserID       string    `json:"user_id"`
	Service      Service   `json:"service"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	Expiry       time.Time `json:"expires_at"`
	AccountEmail string    `json:"account_email"`
	Scopes       []string  `json:"scopes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScopeString joins scopes for storage.
func (c *Credential) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}

// AccessToken is a live bearer token handed to the service clients.
type AccessToken struct {
	Token        string
	AccountEmail string
}

// ConnectionStatus is the per-service view returned by the connections endpoint.
type ConnectionStatus struct {
	Service      Service    `json:"service"`
	Connected    bool       `json:"connected"`
	AccountEmail string     `json:"account_email,omitempty"`
	Scopes       []string   `json:"scopes,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ConnectResponse carries the Google consent URL.
type ConnectResponse struct {
	AuthURL string `json:"auth_url"`
}
