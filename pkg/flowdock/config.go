package flowdock

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the flow routing file: which flow token each team posts to,
// the Team Inbox source identity, and each team's timezone for rendering
// timestamps.
type Config struct {
	FlowForTeam map[string]string `json:"flowForTeam"`
	DefaultFlow string            `json:"defaultFlow"`
	TzForTeam   map[string]string `json:"tzForTeam"`
	TeamInbox   InboxSource       `json:"teamInbox"`
}

// InboxSource is the fixed sender identity for Team Inbox messages.
type InboxSource struct {
	Source      string   `json:"source"`
	FromAddress string   `json:"from_address"`
	FromName    string   `json:"from_name"`
	Tags        []string `json:"tags"`
}

// LoadConfig reads the routing file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flowdock config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flowdock config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.FlowForTeam) == 0 && c.DefaultFlow == "" {
		return fmt.Errorf("flowdock config needs flowForTeam entries or a defaultFlow")
	}
	if c.TeamInbox.Source == "" {
		return fmt.Errorf("teamInbox.source is required")
	}
	if c.TeamInbox.FromAddress == "" {
		return fmt.Errorf("teamInbox.from_address is required")
	}
	return nil
}
