// Package auth applies mirror credentials to outgoing HTTP requests.
package auth

import (
	"fmt"
	"net/http"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// BasicAuth represents HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// BearerAuth represents Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	BasicAuthType  Type = "basic"
	BearerAuthType Type = "bearer"
)

// Apply adds Basic Authentication headers to the HTTP request.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicAuthType.
func (b BasicAuth) Type() Type { return BasicAuthType }

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns BearerAuthType.
func (b BearerAuth) Type() Type { return BearerAuthType }

// Credentials is the configured form of the mirror credentials. Either a
// username (with an optional password) or a token may be set.
type Credentials struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

// Authenticator returns the authenticator for c, or nil when no
// credentials are configured.
func (c Credentials) Authenticator() (Authenticator, error) {
	switch {
	case c.Token != "" && (c.Username != "" || c.Password != ""):
		return nil, fmt.Errorf("mirror_auth: token and username are mutually exclusive: %w", errors.ErrConfigValidation)
	case c.Token != "":
		return BearerAuth{Token: c.Token}, nil
	case c.Username != "":
		return BasicAuth{Username: c.Username, Password: c.Password}, nil
	case c.Password != "":
		return nil, fmt.Errorf("mirror_auth: password without username: %w", errors.ErrConfigValidation)
	default:
		return nil, nil
	}
}
