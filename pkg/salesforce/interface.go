package salesforce

import (
	"context"
	"encoding/json"

	"github.com/futurice/s2f/pkg/config"
)

// API defines the Salesforce operations s2f consumes.
type API interface {
	// APIVersions lists the REST API versions of the instance
	APIVersions(ctx context.Context) ([]APIVersion, error)

	// Resources lists the resources available under the API root
	Resources(ctx context.Context) (map[string]string, error)

	// GetJSON fetches a URL relative to the API root and returns the raw JSON
	GetJSON(ctx context.Context, url string) (json.RawMessage, error)

	// OpportunityChanges splits current opportunities into new and changed
	// records against a snapshot
	OpportunityChanges(ctx context.Context, known map[string]Opportunity, maxTeamItems int) (all, added, changed []Opportunity, err error)

	// OpportunityChatterDetails returns opportunity chatter joined with the
	// parent records, plus the updatesUrl for the next poll
	OpportunityChatterDetails(ctx context.Context, limits config.Limits, startURL string) ([]ChatterDetail, string, error)
}

var _ API = (*Client)(nil)
