// Package activity turns Salesforce opportunity activity into Flowdock
// Team Inbox messages: it polls for changes since the persisted state,
// formats them and posts them to the team's flow.
package activity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/futurice/s2f/pkg/config"
	"github.com/futurice/s2f/pkg/flowdock"
	"github.com/futurice/s2f/pkg/metrics"
	"github.com/futurice/s2f/pkg/salesforce"
	"github.com/futurice/s2f/pkg/state"
)

// Poster delivers messages to the flow of a team.
type Poster interface {
	PostToInbox(ctx context.Context, team string, msg flowdock.InboxMessage) error
	TeamLocation(team string) *time.Location
}

// Service runs one poll-and-post cycle.
type Service struct {
	sf      salesforce.API
	inbox   Poster
	store   state.Store
	limits  config.Limits
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(sf salesforce.API, inbox Poster, store state.Store, limits config.Limits, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		sf:      sf,
		inbox:   inbox,
		store:   store,
		limits:  limits,
		metrics: m,
		logger:  logger,
	}
}

// Run executes a full cycle. Poll failures are fatal and leave the state
// untouched so the next tick retries the same window; delivery failures of
// individual messages are logged and counted but don't fail the run.
func (s *Service) Run(ctx context.Context) error {
	st, existed, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	known := st.Known()

	all, added, changed, err := s.sf.OpportunityChanges(ctx, known, s.limits.MaxTeamOpportunities)
	if err != nil {
		return err
	}
	s.metrics.OpportunitiesSeen.Add(float64(len(all)))
	s.metrics.OpportunitiesNew.Add(float64(len(added)))
	s.metrics.OpportunitiesChanged.Add(float64(len(changed)))

	// Persist the snapshot right away: posting failures below shouldn't
	// cause the same records to be reported again next run.
	st.Opportunities = all
	if err := s.store.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save opportunity snapshot", zap.Error(err))
	}

	if !existed {
		// First run only seeds the snapshot, otherwise every existing
		// opportunity would be announced as new.
		s.logger.Warn("No previous snapshot, seeding without posting opportunities")
	} else {
		s.postOpportunities(ctx, added, changed, known)
	}

	details, updatesURL, err := s.sf.OpportunityChatterDetails(ctx, s.limits, st.UpdatesURL)
	if err != nil {
		return err
	}
	s.metrics.ChatterItems.Add(float64(len(details)))

	for _, detail := range details {
		msg := ChatterMessage(detail, s.inbox.TeamLocation(detail.Opportunity.Team))
		s.post(ctx, detail.Opportunity.Team, msg, "chatter item", detail.Item.ID)
	}

	if updatesURL != "" {
		st.UpdatesURL = updatesURL
	}
	if err := s.store.Save(ctx, st); err != nil {
		return err
	}

	s.logger.Info("Run complete",
		zap.Int("opportunities", len(all)),
		zap.Int("new", len(added)),
		zap.Int("changed", len(changed)),
		zap.Int("chatter_items", len(details)))
	return nil
}

func (s *Service) postOpportunities(ctx context.Context, added, changed []salesforce.Opportunity, known map[string]salesforce.Opportunity) {
	for _, op := range added {
		msg := NewOpportunityMessage(op, s.inbox.TeamLocation(op.Team))
		s.post(ctx, op.Team, msg, "new opportunity", op.ID)
	}

	for _, op := range changed {
		old, ok := known[op.ID]
		if !ok {
			s.logger.Warn("Changed opportunity missing from snapshot",
				zap.String("opportunity_id", op.ID))
			continue
		}
		msg := ChangedOpportunityMessage(old, op, s.inbox.TeamLocation(op.Team))
		s.post(ctx, op.Team, msg, "changed opportunity", op.ID)
	}
}

func (s *Service) post(ctx context.Context, team string, msg flowdock.InboxMessage, kind, id string) {
	if err := s.inbox.PostToInbox(ctx, team, msg); err != nil {
		s.metrics.PostsFailed.Inc()
		s.logger.Error("Failed to post "+kind,
			zap.String("id", id),
			zap.String("team", team),
			zap.Error(err))
		return
	}
	s.metrics.PostsSucceeded.Inc()
}
