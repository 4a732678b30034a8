// Package flowdock posts messages to Flowdock flows.
//
// https://www.flowdock.com/api/chat
// https://www.flowdock.com/api/team-inbox
package flowdock

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	httpclient "github.com/futurice/s2f/pkg/http"
)

const DefaultAPIURL = "https://api.flowdock.com"

// Client posts to flows, routing by team name through the routing config.
type Client struct {
	apiURL     string
	cfg        *Config
	httpClient *httpclient.Client
	logger     *zap.Logger
}

// InboxMessage is one Team Inbox post. Content is plain text; it is
// HTML-escaped on the wire with newlines turned into <br>.
type InboxMessage struct {
	Subject string
	Content string
	Project string
	Link    string
}

func NewClient(apiURL string, cfg *Config, logger *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		cfg:        cfg,
		httpClient: httpclient.NewClientWithLogger(logger),
		logger:     logger,
	}
}

// tokenForTeam resolves the flow token for a team, falling back to the
// default flow. An empty token means the message should be skipped.
func (c *Client) tokenForTeam(team string) string {
	if token, ok := c.cfg.FlowForTeam[team]; ok {
		return token
	}
	if c.cfg.DefaultFlow != "" {
		c.logger.Warn("Unknown team, posting to default flow", zap.String("team", team))
		return c.cfg.DefaultFlow
	}
	c.logger.Warn("Unknown team and no default flow configured", zap.String("team", team))
	return ""
}

// TeamLocation returns the timezone to render timestamps for a team,
// falling back to UTC for unknown teams or zone names.
func (c *Client) TeamLocation(team string) *time.Location {
	name, ok := c.cfg.TzForTeam[team]
	if !ok {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		c.logger.Warn("Bad timezone in flowdock config, using UTC",
			zap.String("team", team), zap.String("tz", name))
		return time.UTC
	}
	return loc
}

// PostToInbox posts a message to the Team Inbox of the team's flow.
// Unknown teams without a default flow are skipped, not an error.
func (c *Client) PostToInbox(ctx context.Context, team string, msg InboxMessage) error {
	token := c.tokenForTeam(team)
	if token == "" {
		return nil
	}

	payload := map[string]interface{}{
		"source":       c.cfg.TeamInbox.Source,
		"from_address": c.cfg.TeamInbox.FromAddress,
		"subject":      msg.Subject,
		"content":      escapeHTML(msg.Content),
		"format":       "html",
		"tags":         c.cfg.TeamInbox.Tags,
	}
	if c.cfg.TeamInbox.FromName != "" {
		payload["from_name"] = c.cfg.TeamInbox.FromName
	}
	if msg.Project != "" {
		payload["project"] = msg.Project
	}
	if msg.Link != "" {
		payload["link"] = msg.Link
	}

	c.logger.Info("Posting message to Team Inbox",
		zap.String("team", team), zap.String("subject", msg.Subject))

	endpoint := c.apiURL + "/v1/messages/team_inbox/" + url.PathEscape(token)
	return c.post(ctx, endpoint, payload)
}

// Chat posts a chat message to the team's flow from an "external user".
// The user name must be non-empty, at most 16 characters and contain no
// spaces or Flowdock rejects it.
func (c *Client) Chat(ctx context.Context, team, externalUserName, content string, tags []string) error {
	if externalUserName == "" || len(externalUserName) > 16 || strings.ContainsRune(externalUserName, ' ') {
		return fmt.Errorf("invalid external user name %q", externalUserName)
	}

	token := c.tokenForTeam(team)
	if token == "" {
		return nil
	}

	payload := map[string]interface{}{
		"external_user_name": externalUserName,
		"content":            content,
		"tags":               tags,
	}

	c.logger.Info("Posting chat message", zap.String("team", team))

	endpoint := c.apiURL + "/v1/messages/chat/" + url.PathEscape(token)
	return c.post(ctx, endpoint, payload)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) error {
	resp, err := c.httpClient.Post(ctx, endpoint, nil, payload)
	if err != nil {
		return fmt.Errorf("flowdock post failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("flowdock status %d: %s", resp.StatusCode, string(resp.Body))
	}
	c.logger.Debug("Flowdock post ok", zap.Int("status_code", resp.StatusCode))
	return nil
}

// escapeHTML turns plain text into the HTML Flowdock renders: entities
// escaped, newlines as <br>.
func escapeHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
