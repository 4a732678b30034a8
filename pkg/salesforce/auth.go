package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Scopes required by the chatter poller.
var Scopes = []string{"chatter_api", "api", "refresh_token"}

// OAuthEndpoint builds the Salesforce OAuth2 endpoint for a login URL.
func OAuthEndpoint(loginURL string) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  loginURL + "/services/oauth2/authorize",
		TokenURL: loginURL + "/services/oauth2/token",
	}
}

// Token is the persisted OAuth2 token. Salesforce returns the instance URL
// together with the token, so it lives in the same file.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	InstanceURL  string `json:"instance_url"`
}

// LoadToken reads a token file written by SaveToken or the setup flow.
func LoadToken(path string) (*Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token file %s has no access token, run sforce-setup first", path)
	}

	return &token, nil
}

// SaveToken writes the token file with owner-only permissions.
func SaveToken(path string, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// FromOAuth2 converts an exchanged oauth2 token, pulling the instance URL
// out of the provider's extra fields.
func FromOAuth2(tok *oauth2.Token) *Token {
	token := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if instanceURL, ok := tok.Extra("instance_url").(string); ok {
		token.InstanceURL = instanceURL
	}
	return token
}

// refreshToken exchanges the refresh token for a new access token and saves
// the result. Salesforce doesn't return expires_in with its tokens, so the
// oauth2 package's expiry-based refresh never triggers; callers invoke this
// when the API rejects the current token.
func (c *Client) refreshToken(ctx context.Context) error {
	c.logger.Info("Refreshing Salesforce access token")

	if c.token.RefreshToken == "" {
		return fmt.Errorf("no refresh token available, run sforce-setup again")
	}

	// An already-expired expiry forces TokenSource to hit the token
	// endpoint instead of returning the token it was seeded with.
	seed := &oauth2.Token{
		RefreshToken: c.token.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	newTok, err := c.oauth.TokenSource(ctx, seed).Token()
	if err != nil {
		c.logger.Error("Token refresh failed", zap.Error(err))
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	token := FromOAuth2(newTok)
	if token.RefreshToken == "" {
		token.RefreshToken = c.token.RefreshToken
	}
	if token.InstanceURL == "" {
		token.InstanceURL = c.token.InstanceURL
	}
	c.token = token

	if err := SaveToken(c.tokenFile, token); err != nil {
		return err
	}

	c.logger.Info("Saved refreshed OAuth2 token", zap.String("file", c.tokenFile))
	return nil
}

// isSessionExpired reports whether a 401 body is Salesforce's way of saying
// the access token expired. The body is a JSON array of error objects with
// errorCode INVALID_SESSION_ID.
func isSessionExpired(body []byte) bool {
	var errs []apiError
	if err := json.Unmarshal(body, &errs); err != nil {
		return false
	}
	for _, e := range errs {
		if e.ErrorCode == "INVALID_SESSION_ID" {
			return true
		}
	}
	return false
}
