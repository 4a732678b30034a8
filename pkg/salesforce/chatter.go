package salesforce

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/futurice/s2f/pkg/config"
)

// DefaultChatterURL is the company feed, the starting point when no
// updatesUrl from a previous run is known.
const DefaultChatterURL = "chatter/feeds/company/feed-items"

// CompanyChatter fetches chatter feed pages starting at startURL (the
// company feed when empty), stopping when it reaches the end of the feed,
// finds items older than Limits.MaxAge, or trips the item or page limit.
//
// It returns the items plus the updatesUrl of the first page; passing that
// URL to the next run fetches only newer activity.
func (c *Client) CompanyChatter(ctx context.Context, limits config.Limits, startURL string) ([]ChatterItem, string, error) {
	url := startURL
	if url == "" {
		url = DefaultChatterURL
	}

	var items []ChatterItem
	var updatesURL string
	maxAgeExceeded := false
	pagesRetrieved := 0

	for url != "" && !maxAgeExceeded && len(items) < limits.MaxItems && pagesRetrieved < limits.MaxPages {
		var feed ChatterFeed
		if err := c.getJSON(ctx, url, &feed); err != nil {
			return nil, "", fmt.Errorf("failed to fetch chatter page: %w", err)
		}
		if pagesRetrieved == 0 {
			updatesURL = feed.UpdatesURL
			c.logger.Info("Future chatter updates", zap.String("updates_url", updatesURL))
		}

		pagesRetrieved++
		items = append(items, feed.Items...)
		if len(items) > 0 {
			last := items[len(items)-1]
			for _, then := range []time.Time{last.CreatedDate.Time, last.ModifiedDate.Time} {
				if !then.IsZero() && time.Since(then) > limits.MaxAge {
					maxAgeExceeded = true
					break
				}
			}
		}

		url = feed.NextPageURL
	}

	c.logger.Info("Fetched company chatter",
		zap.Int("items", len(items)),
		zap.Int("pages", pagesRetrieved),
		zap.Bool("max_age_exceeded", maxAgeExceeded))

	return items, updatesURL, nil
}

// OpportunityChatter filters CompanyChatter results to items attached to
// an Opportunity record.
func (c *Client) OpportunityChatter(ctx context.Context, limits config.Limits, startURL string) ([]ChatterItem, string, error) {
	items, updatesURL, err := c.CompanyChatter(ctx, limits, startURL)
	if err != nil {
		return nil, "", err
	}

	var filtered []ChatterItem
	for _, item := range items {
		if item.Parent.Type == "Opportunity" {
			filtered = append(filtered, item)
		}
	}
	return filtered, updatesURL, nil
}

// OpportunityChatterDetails joins opportunity chatter items with their
// parent Opportunity records, fetched in one SOQL query. Items whose parent
// can't be fetched are dropped with a warning.
func (c *Client) OpportunityChatterDetails(ctx context.Context, limits config.Limits, startURL string) ([]ChatterDetail, string, error) {
	items, updatesURL, err := c.OpportunityChatter(ctx, limits, startURL)
	if err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, updatesURL, nil
	}

	seen := map[string]bool{}
	var ids []string
	for _, item := range items {
		if !seen[item.Parent.ID] {
			seen[item.Parent.ID] = true
			ids = append(ids, item.Parent.ID)
		}
	}

	ops, err := c.OpportunitiesByID(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	opsByID := map[string]Opportunity{}
	for _, op := range ops {
		opsByID[op.ID] = op
	}

	var details []ChatterDetail
	for _, item := range items {
		op, ok := opsByID[item.Parent.ID]
		if !ok {
			c.logger.Warn("Chatter item parent opportunity not found",
				zap.String("item_id", item.ID),
				zap.String("parent_id", item.Parent.ID))
			continue
		}
		details = append(details, ChatterDetail{Item: item, Opportunity: op})
	}

	return details, updatesURL, nil
}
