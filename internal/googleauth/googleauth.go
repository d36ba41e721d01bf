// Package googleauth loads OAuth2 credentials for the Google Workspace
// APIs (Calendar and Gmail) from local credential and token files.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes covers everything the assistant does with the user's account.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.modify",
}

// TokenSource builds an auto-refreshing token source from the OAuth
// client credentials file and a previously stored token file. Refreshed
// tokens are persisted back to tokenPath.
func TokenSource(ctx context.Context, credentialsPath, tokenPath string) (oauth2.TokenSource, error) {
	cfg, err := loadConfig(credentialsPath)
	if err != nil {
		return nil, err
	}
	tok, err := loadToken(tokenPath)
	if err != nil {
		return nil, err
	}
	return &savingTokenSource{
		base: cfg.TokenSource(ctx, tok),
		path: tokenPath,
		last: tok,
	}, nil
}

func loadConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token (run the auth flow first): %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &tok, nil
}

// savingTokenSource writes refreshed tokens back to disk so the next
// process start doesn't need a new consent flow.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if data, err := json.Marshal(tok); err == nil {
			_ = os.WriteFile(s.path, data, 0o600)
		}
	}
	return tok, nil
}

// AuthURL returns the consent URL for the one-time interactive flow.
func AuthURL(credentialsPath string) (string, error) {
	cfg, err := loadConfig(credentialsPath)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and stores it.
func Exchange(ctx context.Context, credentialsPath, tokenPath, code string) error {
	cfg, err := loadConfig(credentialsPath)
	if err != nil {
		return err
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0o600)
}
