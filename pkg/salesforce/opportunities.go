package salesforce

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const opportunityFields = "Id, Name, StageName, Amount, Probability, " +
	"CloseDate, Description, CreatedDate, LastModifiedDate, " +
	"CreatedBy.Name, LastModifiedBy.Name, Owner.Name, Account.Name, " +
	"AvgHourPrice__c, TypeOfSales__c, FutuTeam__c"

// query runs a SOQL query and follows nextRecordsUrl until done.
func (c *Client) query(ctx context.Context, soql string) ([]Opportunity, error) {
	next := "query?q=" + url.QueryEscape(soql)

	var records []Opportunity
	for next != "" {
		var page QueryResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("SOQL query failed: %w", err)
		}
		records = append(records, page.Records...)
		if page.Done {
			break
		}
		next = page.NextRecordsURL
	}
	return records, nil
}

// Opportunities fetches all opportunities, newest modifications first,
// keeping at most maxTeamItems records per team (0 means no cap).
func (c *Client) Opportunities(ctx context.Context, maxTeamItems int) ([]Opportunity, error) {
	soql := fmt.Sprintf("SELECT %s FROM Opportunity ORDER BY LastModifiedDate DESC", opportunityFields)
	ops, err := c.query(ctx, soql)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched opportunities", zap.Int("count", len(ops)))
	return capPerTeam(ops, maxTeamItems), nil
}

// OpportunitiesByID fetches the given opportunity records.
func (c *Client) OpportunitiesByID(ctx context.Context, ids []string) ([]Opportunity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + strings.ReplaceAll(id, "'", "") + "'"
	}
	soql := fmt.Sprintf("SELECT %s FROM Opportunity WHERE Id IN (%s)",
		opportunityFields, strings.Join(quoted, ", "))
	return c.query(ctx, soql)
}

// OpportunityChanges fetches the current opportunities and splits them
// against a snapshot of previously seen records into new ones (Id not in
// the snapshot) and changed ones (a watched field differs).
func (c *Client) OpportunityChanges(ctx context.Context, known map[string]Opportunity, maxTeamItems int) (all, added, changed []Opportunity, err error) {
	all, err = c.Opportunities(ctx, maxTeamItems)
	if err != nil {
		return nil, nil, nil, err
	}

	for _, op := range all {
		old, ok := known[op.ID]
		switch {
		case !ok:
			added = append(added, op)
		case Changed(old, op):
			changed = append(changed, op)
		}
	}

	c.logger.Info("Computed opportunity changes",
		zap.Int("all", len(all)),
		zap.Int("new", len(added)),
		zap.Int("changed", len(changed)))
	return all, added, changed, nil
}

// capPerTeam keeps the first max records of each team, preserving order.
func capPerTeam(ops []Opportunity, max int) []Opportunity {
	if max <= 0 {
		return ops
	}
	counts := map[string]int{}
	var kept []Opportunity
	for _, op := range ops {
		if counts[op.Team] >= max {
			continue
		}
		counts[op.Team]++
		kept = append(kept, op)
	}
	return kept
}
