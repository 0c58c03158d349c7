// Package credentials exchanges a long-lived Google OAuth refresh token for
// short-lived bearer tokens shared by the Sheets, Drive, and Gmail clients.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/relaylabs/leadrelay/pkg/logging"
)

// OAuth scopes requested for the shared token source.
const (
	ScopeSpreadsheets      = "https://www.googleapis.com/auth/spreadsheets"
	ScopeDriveMetadataRead = "https://www.googleapis.com/auth/drive.metadata.readonly"
	ScopeGmailSend         = "https://www.googleapis.com/auth/gmail.send"
)

// ErrNotConfigured is returned when the client id, client secret, or refresh
// token is missing. Callers treat this as a configuration problem, not a
// transient failure.
var ErrNotConfigured = errors.New("credentials: google oauth client is not configured")

// AuthError wraps a failed token exchange or refresh.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credentials: token exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Config holds the OAuth client triple and requested scopes.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scopes       []string
}

// DefaultScopes covers spreadsheet writes, title search, and Gmail sends.
func DefaultScopes() []string {
	return []string{ScopeSpreadsheets, ScopeDriveMetadataRead, ScopeGmailSend}
}

// Provider vends bearer tokens minted from a refresh token. Tokens are cached
// in memory and re-minted only after expiry; the cache is shared by every
// Google service client in the process.
type Provider struct {
	cfg    Config
	logger *logging.Logger

	mu sync.Mutex
	ts oauth2.TokenSource
}

// NewProvider validates the credential triple and returns a provider.
func NewProvider(cfg Config, logger *logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, ErrNotConfigured
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	return &Provider{cfg: cfg, logger: logger}, nil
}

// TokenSource returns the shared caching token source. The refresh call is
// shared across requests, so it is bound to the process lifetime rather than
// any single request context.
func (p *Provider) TokenSource() oauth2.TokenSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ts == nil {
		oc := &oauth2.Config{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       p.cfg.Scopes,
		}
		base := oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: p.cfg.RefreshToken})
		p.ts = oauth2.ReuseTokenSource(nil, &errMappingSource{src: base})
	}
	return p.ts
}

// AccessToken returns a currently valid bearer token, minting one if the
// cached token has expired. Failures surface as *AuthError.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := p.TokenSource().Token()
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			return "", err
		}
		return "", &AuthError{Err: err}
	}
	return tok.AccessToken, nil
}

// errMappingSource converts oauth2 transport failures into *AuthError so the
// HTTP layer can classify them.
type errMappingSource struct {
	src oauth2.TokenSource
}

func (s *errMappingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	return tok, nil
}

var _ oauth2.TokenSource = (*errMappingSource)(nil)
