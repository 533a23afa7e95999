package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// StaticProvider resolves credentials from a fixed token-to-subject map.
// Useful for tests and single-operator development setups.
type StaticProvider struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewStatic creates a provider over the given token -> subject map.
func NewStatic(tokens map[string]string) *StaticProvider {
	copied := make(map[string]string, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &StaticProvider{tokens: copied}
}

// Register adds or replaces a credential.
func (p *StaticProvider) Register(token, subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[token] = subject
}

// VerifyCredential looks the credential up in the map.
func (p *StaticProvider) VerifyCredential(ctx context.Context, credential string) (*simpleblog.Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	subject, ok := p.tokens[credential]
	if !ok {
		return nil, errors.New("unknown credential")
	}

	return &simpleblog.Identity{SubjectID: subject}, nil
}
