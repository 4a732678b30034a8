package activity

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/futurice/s2f/pkg/salesforce"
)

func floatPtr(f float64) *float64 { return &f }

func sampleOpportunity() salesforce.Opportunity {
	return salesforce.Opportunity{
		ID:             "006A",
		Name:           "New website",
		StageName:      "Negotiation",
		Amount:         floatPtr(125000),
		Probability:    floatPtr(75),
		CloseDate:      "2014-12-31",
		Description:    "Complete redesign",
		CreatedDate:    salesforce.APITime{Time: time.Date(2014, 9, 9, 4, 4, 2, 0, time.UTC)},
		ModifiedDate:   salesforce.APITime{Time: time.Date(2014, 9, 9, 4, 4, 2, 0, time.UTC)},
		CreatedBy:      salesforce.Named{Name: "Alice Smith"},
		LastModifiedBy: salesforce.Named{Name: "Bob Jones"},
		Owner:          salesforce.Named{Name: "Bob Jones"},
		Account:        salesforce.Named{Name: "Acme Corp"},
		AvgHourPrice:   floatPtr(95.5),
		TypeOfSales:    "New sales",
		Team:           "Tammerforce",
	}
}

func TestFormatNumber(t *testing.T) {
	c := qt.New(t)

	c.Assert(formatNumber(50000), qt.Equals, "50,000")
	c.Assert(formatNumber(1234567), qt.Equals, "1,234,567")
	c.Assert(formatNumber(62.5), qt.Equals, "62.5")
	c.Assert(formatNumber(75), qt.Equals, "75")
}

func TestSnippet(t *testing.T) {
	c := qt.New(t)

	c.Assert(snippet("short", 40), qt.Equals, "short")
	long := "this text is longer than forty characters, much longer"
	got := snippet(long, 40)
	c.Assert([]rune(got), qt.HasLen, 40)
	c.Assert(got[len(got)-len("…"):], qt.Equals, "…")
}

func TestNewOpportunityMessage(t *testing.T) {
	c := qt.New(t)

	msg := NewOpportunityMessage(sampleOpportunity(), time.UTC)
	c.Assert(msg.Subject, qt.Equals, "New website — Alice Smith")
	c.Assert(msg.Project, qt.Equals, "Acme Corp")
	c.Assert(msg.Content, qt.Contains, "Complete redesign")
	c.Assert(msg.Content, qt.Contains, "– 09 Sep 2014 at 04:04 UTC created by Alice Smith")
	c.Assert(msg.Content, qt.Contains, "Stage: Negotiation, Owner: Bob Jones, Account: Acme Corp.")
	c.Assert(msg.Content, qt.Contains, "Amount 125,000")
	c.Assert(msg.Content, qt.Contains, "Probability 75%")
	// created == modified, so no modified line
	c.Assert(msg.Content, qt.Not(qt.Contains), "modified by")
}

func TestNewOpportunityMessageModifiedLine(t *testing.T) {
	c := qt.New(t)

	op := sampleOpportunity()
	op.ModifiedDate = salesforce.APITime{Time: time.Date(2014, 10, 1, 10, 30, 0, 0, time.UTC)}
	msg := NewOpportunityMessage(op, time.UTC)
	c.Assert(msg.Content, qt.Contains, "– 01 Oct 2014 at 10:30 UTC modified by Bob Jones")
}

func TestChangedOpportunityMessage(t *testing.T) {
	c := qt.New(t)

	old := sampleOpportunity()
	cur := sampleOpportunity()
	cur.StageName = "Closed Won"
	cur.Amount = floatPtr(150000)
	cur.Description = "Complete redesign plus maintenance"

	msg := ChangedOpportunityMessage(old, cur, time.UTC)
	c.Assert(msg.Subject, qt.Equals, "[updated] New website — Bob Jones")
	c.Assert(msg.Content, qt.Contains, "Updated fields:\n")
	c.Assert(msg.Content, qt.Contains, "Stage: Negotiation → Closed Won\n")
	c.Assert(msg.Content, qt.Contains, "Amount: 125,000 → 150,000\n")
	// Description shows only the new value
	c.Assert(msg.Content, qt.Contains, "Description: Complete redesign plus maintenance\n")
	c.Assert(msg.Content, qt.Not(qt.Contains), "Description: Complete redesign →")
	// unchanged fields aren't listed
	c.Assert(msg.Content, qt.Not(qt.Contains), "Owner:  →")
	c.Assert(msg.Content, qt.Not(qt.Contains), "Close date:")
}

func TestChangedOpportunityMessageClearedValue(t *testing.T) {
	c := qt.New(t)

	old := sampleOpportunity()
	cur := sampleOpportunity()
	cur.Amount = nil

	msg := ChangedOpportunityMessage(old, cur, time.UTC)
	c.Assert(msg.Content, qt.Contains, "Amount: 125,000 → none\n")
}

func TestChatterMessage(t *testing.T) {
	c := qt.New(t)

	item := salesforce.ChatterItem{ID: "i1"}
	item.Actor.Name = "Alice Smith"
	item.Body.Text = "Customer agreed to the proposal"
	item.ModifiedDate = salesforce.APITime{Time: time.Date(2014, 9, 9, 4, 4, 2, 0, time.UTC)}

	msg := ChatterMessage(salesforce.ChatterDetail{Item: item, Opportunity: sampleOpportunity()}, time.UTC)
	c.Assert(msg.Subject, qt.Equals, "[chatter] New website – Alice Smith")
	c.Assert(msg.Project, qt.Equals, "Acme Corp")
	c.Assert(msg.Content, qt.Contains, "Customer agreed to the proposal\n\n")
	c.Assert(msg.Content, qt.Contains, "– Alice Smith (09 Sep 2014 at 04:04 UTC)")
	c.Assert(msg.Content, qt.Contains, "Stage: Negotiation")
}

func TestTimestampInTeamZone(t *testing.T) {
	c := qt.New(t)

	helsinki, err := time.LoadLocation("Europe/Helsinki")
	c.Assert(err, qt.IsNil)

	// 04:04 UTC in September is 07:04 in Helsinki (EEST)
	got := formatTimestamp(time.Date(2014, 9, 9, 4, 4, 2, 0, time.UTC), helsinki)
	c.Assert(got, qt.Equals, "09 Sep 2014 at 07:04 EEST")
}
