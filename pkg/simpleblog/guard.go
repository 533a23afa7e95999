package simpleblog

import (
	"context"
	"fmt"
	"strings"
)

// Guard authenticates bearer credentials and checks administrator privilege.
//
// The two checks are ordered: Authenticate failures map to ErrUnauthenticated
// (401-equivalent) and are reported even when the caller would also fail the
// admin check; RequireAdmin failures map to ErrForbidden (403-equivalent).
type Guard struct {
	identity IdentityProvider
	profiles ProfileStore
}

// NewGuard creates a guard from an identity provider and a profile store.
func NewGuard(identity IdentityProvider, profiles ProfileStore) *Guard {
	return &Guard{
		identity: identity,
		profiles: profiles,
	}
}

// Authenticate exchanges credential for an identity. A missing, malformed or
// upstream-rejected credential yields ErrUnauthenticated.
func (g *Guard) Authenticate(ctx context.Context, credential string) (*Identity, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return nil, fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}

	identity, err := g.identity.VerifyCredential(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if identity == nil || identity.SubjectID == "" {
		return nil, fmt.Errorf("%w: credential resolved to no subject", ErrUnauthenticated)
	}

	return identity, nil
}

// RequireAdmin checks the identity's privilege flag. A failed profile lookup
// or a false flag yields ErrForbidden.
func (g *Guard) RequireAdmin(ctx context.Context, identity *Identity) error {
	profile, err := g.profiles.GetProfile(ctx, identity.SubjectID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if !profile.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// Authorize runs Authenticate then RequireAdmin and returns the identity.
func (g *Guard) Authorize(ctx context.Context, credential string) (*Identity, error) {
	identity, err := g.Authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	if err := g.RequireAdmin(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}
