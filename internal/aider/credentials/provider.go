// Package credentials supplies the access token used for relay models.
//
// Sessions depend only on the Provider interface. StaticProvider keeps a
// token pair in memory; FileProvider reads it from a YAML file, persists
// updates back to it, and can watch it for changes made by another process
// such as a login command.
package credentials

import (
	"context"
	"sync"
)

// Provider is the source of relay credentials for a session.
type Provider interface {
	// AccessToken returns the current access token, or "" when signed out.
	AccessToken() string
	// CheckAndUpdate refreshes the credentials from their source.
	CheckAndUpdate(ctx context.Context) error
	// SetAccessToken replaces the access token.
	SetAccessToken(token string)
	// SetRefreshToken replaces the refresh token.
	SetRefreshToken(token string)
}

// StaticProvider is an in-memory Provider.
type StaticProvider struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewStaticProvider returns a StaticProvider holding the given tokens.
func NewStaticProvider(access, refresh string) *StaticProvider {
	return &StaticProvider{access: access, refresh: refresh}
}

// AccessToken implements Provider.
func (p *StaticProvider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.access
}

// RefreshToken returns the stored refresh token.
func (p *StaticProvider) RefreshToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refresh
}

// CheckAndUpdate implements Provider. There is no backing source to consult.
func (p *StaticProvider) CheckAndUpdate(ctx context.Context) error {
	return ctx.Err()
}

// SetAccessToken implements Provider.
func (p *StaticProvider) SetAccessToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.access = token
}

// SetRefreshToken implements Provider.
func (p *StaticProvider) SetRefreshToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresh = token
}
