package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type staticSource struct {
	tok   *oauth2.Token
	err   error
	calls int
}

func (s *staticSource) Token() (*oauth2.Token, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tok, nil
}

func TestNewProviderRequiresFullTriple(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"missing secret", Config{ClientID: "id", RefreshToken: "rt"}},
		{"missing refresh token", Config{ClientID: "id", ClientSecret: "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(tt.cfg, nil); !errors.Is(err, ErrNotConfigured) {
				t.Fatalf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestNewProviderDefaultsScopes(t *testing.T) {
	p, err := NewProvider(Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "rt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.cfg.Scopes) != 3 {
		t.Fatalf("expected 3 default scopes, got %v", p.cfg.Scopes)
	}
}

func TestAccessTokenCachesUntilExpiry(t *testing.T) {
	p, err := NewProvider(Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "rt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := &staticSource{tok: &oauth2.Token{
		AccessToken: "bearer-1",
		Expiry:      time.Now().Add(time.Hour),
	}}
	p.ts = oauth2.ReuseTokenSource(nil, &errMappingSource{src: src})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := p.AccessToken(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "bearer-1" {
			t.Fatalf("expected cached bearer, got %s", got)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected a single mint for valid token, got %d", src.calls)
	}
}

func TestAccessTokenMapsFailureToAuthError(t *testing.T) {
	p, err := NewProvider(Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "rt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := &staticSource{err: errors.New("invalid_grant")}
	p.ts = oauth2.ReuseTokenSource(nil, &errMappingSource{src: src})

	_, err = p.AccessToken(context.Background())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
	if ae.Unwrap() == nil {
		t.Fatal("expected wrapped cause")
	}
}

func TestAccessTokenHonorsCanceledContext(t *testing.T) {
	p, err := NewProvider(Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "rt"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.AccessToken(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
