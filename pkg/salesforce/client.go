// Package salesforce is a client for the core Salesforce REST API, covering
// the slice s2f needs: OAuth2 tokens, SOQL opportunity queries and the
// company chatter feed.
//
// https://developer.salesforce.com/page/REST_API
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/futurice/s2f/pkg/config"
	httpclient "github.com/futurice/s2f/pkg/http"
)

// Client makes Salesforce API calls using the given configuration.
type Client struct {
	cfg        *config.Config
	oauth      *oauth2.Config
	token      *Token
	tokenFile  string
	httpClient *httpclient.Client
	logger     *zap.Logger
}

// NewClient loads the token file and builds a client. A missing or empty
// token file is an error: the interactive sforce-setup command writes it.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	token, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     OAuthEndpoint(cfg.LoginURL),
			Scopes:       Scopes,
		},
		token:      token,
		tokenFile:  cfg.TokenFile,
		httpClient: httpclient.NewClientWithLogger(logger),
		logger:     logger,
	}, nil
}

// apiRoot is the versioned API root on the instance, with a trailing slash
// so relative resource paths resolve under it.
func (c *Client) apiRoot() string {
	return c.token.InstanceURL + c.cfg.APIPath + "/"
}

// getJSON GETs a URL (absolute, or relative to the API root) with the
// current access token and decodes the JSON response into out.
//
// When Salesforce answers 401 INVALID_SESSION_ID the token is refreshed and
// the request repeated once. The provider doesn't send expires_in, so
// expiry can only be detected from the response.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	resolved, err := httpclient.ResolveURL(c.apiRoot(), url)
	if err != nil {
		return err
	}

	resp, err := c.get(ctx, resolved)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && isSessionExpired(resp.Body) {
		if err := c.refreshToken(ctx); err != nil {
			return err
		}
		resp, err = c.get(ctx, resolved)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Salesforce request failed",
			zap.String("url", resolved),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		return fmt.Errorf("salesforce request failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", resolved, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*httpclient.Response, error) {
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", c.token.AccessToken),
	}
	resp, err := c.httpClient.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("salesforce request failed: %w", err)
	}
	return resp, nil
}

// GetJSON fetches a URL relative to the API root and returns the raw JSON.
// Useful for exploring the API (the sforce-get command).
func (c *Client) GetJSON(ctx context.Context, url string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// APIVersions lists the REST API versions of the instance. The endpoint
// needs no authentication, but it still needs the instance URL, which comes
// with the token.
func (c *Client) APIVersions(ctx context.Context) ([]APIVersion, error) {
	url := c.token.InstanceURL + "/services/data/"
	resp, err := c.httpClient.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get API versions: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get API versions failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var versions []APIVersion
	if err := json.Unmarshal(resp.Body, &versions); err != nil {
		return nil, fmt.Errorf("failed to parse API versions: %w", err)
	}
	return versions, nil
}

// Resources lists the resources available under the API root.
func (c *Client) Resources(ctx context.Context) (map[string]string, error) {
	resources := map[string]string{}
	if err := c.getJSON(ctx, "", &resources); err != nil {
		return nil, err
	}
	return resources, nil
}
