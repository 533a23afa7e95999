// Package identity provides IdentityProvider implementations for the
// authorization guard.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/jwtauth"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// JWTProvider verifies HS256 bearer tokens and resolves the subject claim.
type JWTProvider struct {
	auth *jwtauth.JWTAuth
}

// NewJWT creates a provider verifying tokens signed with secret.
func NewJWT(secret []byte) *JWTProvider {
	return &JWTProvider{
		auth: jwtauth.New("HS256", secret, nil),
	}
}

// VerifyCredential validates the token signature and expiry and returns the
// identity carried in the subject claim.
func (p *JWTProvider) VerifyCredential(ctx context.Context, credential string) (*simpleblog.Identity, error) {
	token, err := jwtauth.VerifyToken(p.auth, credential)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	subject := token.Subject()
	if subject == "" {
		return nil, errors.New("token carries no subject")
	}

	return &simpleblog.Identity{SubjectID: subject}, nil
}

// Encode signs a token for subject. Intended for tests and local tooling.
func (p *JWTProvider) Encode(subject string) (string, error) {
	_, tokenString, err := p.auth.Encode(map[string]interface{}{"sub": subject})
	if err != nil {
		return "", err
	}
	return tokenString, nil
}
