// Package state persists the high-water mark between runs: the chatter
// updatesUrl and the last seen opportunity snapshot. Saving only after a
// successful poll keeps the job idempotent across cron ticks.
package state

import (
	"context"

	"github.com/futurice/s2f/pkg/salesforce"
)

// RunState is everything a run needs from the previous one.
type RunState struct {
	// UpdatesURL is the chatter feed URL that yields only activity newer
	// than the last successful poll. Empty means start from the feed head.
	UpdatesURL string `json:"updatesUrl"`
	// Opportunities is the snapshot diffed against to detect new and
	// changed records.
	Opportunities []salesforce.Opportunity `json:"opportunities"`
}

// Known indexes the snapshot by record Id.
func (s *RunState) Known() map[string]salesforce.Opportunity {
	known := make(map[string]salesforce.Opportunity, len(s.Opportunities))
	for _, op := range s.Opportunities {
		known[op.ID] = op
	}
	return known
}

// Store loads and saves run state. Load returns (zero state, false, nil)
// when no previous state exists, which marks a first run.
type Store interface {
	Load(ctx context.Context) (RunState, bool, error)
	Save(ctx context.Context, state RunState) error
}
