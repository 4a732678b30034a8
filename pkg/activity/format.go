package activity

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/futurice/s2f/pkg/flowdock"
	"github.com/futurice/s2f/pkg/salesforce"
)

const timestampLayout = "02 Jan 2006 at 15:04 MST"

var numberPrinter = message.NewPrinter(language.English)

// formatNumber renders 50000 as "50,000" and keeps 62.5 as "62.5".
func formatNumber(f float64) string {
	return numberPrinter.Sprint(number.Decimal(f))
}

// formatValue renders a watched-field value for a diff line.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "none"
	case float64:
		return formatNumber(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(timestampLayout)
}

// snippet shortens text to at most max runes, marking the cut with "…".
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}

// opportunitySummary is the trailing block common to all opportunity
// messages: stage/owner/account plus whichever optional figures are set.
func opportunitySummary(op salesforce.Opportunity) string {
	txt := fmt.Sprintf("Stage: %s, Owner: %s, Account: %s.",
		op.StageName, op.Owner.Name, op.Account.Name)

	var lineItems []string
	if op.Amount != nil {
		lineItems = append(lineItems, "Amount "+formatNumber(*op.Amount))
	}
	if op.Probability != nil {
		lineItems = append(lineItems, "Probability "+formatNumber(*op.Probability)+"%")
	}
	if op.AvgHourPrice != nil {
		lineItems = append(lineItems, "Avg. hour price "+formatNumber(*op.AvgHourPrice))
	}
	if op.CloseDate != "" {
		lineItems = append(lineItems, "Close date "+op.CloseDate)
	}
	if op.TypeOfSales != "" {
		lineItems = append(lineItems, "Type of sales: "+op.TypeOfSales)
	}
	if len(lineItems) > 0 {
		txt += "\n" + strings.Join(lineItems, ", ") + "."
	}

	return txt
}

// NewOpportunityMessage formats a newly created opportunity.
func NewOpportunityMessage(op salesforce.Opportunity, loc *time.Location) flowdock.InboxMessage {
	var b strings.Builder
	if op.Description != "" {
		b.WriteString(op.Description + "\n\n")
	}

	fmt.Fprintf(&b, "– %s created by %s",
		formatTimestamp(op.CreatedDate.Time, loc), op.CreatedBy.Name)
	if !op.ModifiedDate.Equal(op.CreatedDate.Time) {
		fmt.Fprintf(&b, "\n– %s modified by %s",
			formatTimestamp(op.ModifiedDate.Time, loc), op.LastModifiedBy.Name)
	}

	b.WriteString("\n\n")
	b.WriteString(opportunitySummary(op))

	return flowdock.InboxMessage{
		Subject: fmt.Sprintf("%s — %s", op.Name, op.CreatedBy.Name),
		Content: b.String(),
		Project: op.Account.Name,
	}
}

// ChangedOpportunityMessage formats a changed opportunity as a diff of the
// watched fields. Long values are shown as 40-rune snippets; a changed
// Description is shown new-value-only since the diff would be unreadable.
func ChangedOpportunityMessage(old, cur salesforce.Opportunity, loc *time.Location) flowdock.InboxMessage {
	var b strings.Builder
	b.WriteString("Updated fields:\n")

	for _, f := range salesforce.WatchedFields {
		oldVal, newVal := f.Get(old), f.Get(cur)
		if oldVal == newVal {
			continue
		}
		if f.Label == "Description" {
			fmt.Fprintf(&b, "%s: %s\n", f.Label, formatValue(newVal))
		} else {
			fmt.Fprintf(&b, "%s: %s → %s\n", f.Label,
				snippet(formatValue(oldVal), 40), snippet(formatValue(newVal), 40))
		}
	}

	fmt.Fprintf(&b, "\n– %s modified by %s",
		formatTimestamp(cur.ModifiedDate.Time, loc), cur.LastModifiedBy.Name)

	b.WriteString("\n\n")
	b.WriteString(opportunitySummary(cur))

	return flowdock.InboxMessage{
		Subject: fmt.Sprintf("[updated] %s — %s", cur.Name, cur.LastModifiedBy.Name),
		Content: b.String(),
		Project: cur.Account.Name,
	}
}

// ChatterMessage formats an opportunity chatter item.
func ChatterMessage(detail salesforce.ChatterDetail, loc *time.Location) flowdock.InboxMessage {
	item, op := detail.Item, detail.Opportunity

	var b strings.Builder
	if item.Body.Text != "" {
		b.WriteString(item.Body.Text + "\n\n")
	}

	fmt.Fprintf(&b, "– %s (%s)", item.Actor.Name,
		formatTimestamp(item.ModifiedDate.Time, loc))

	b.WriteString("\n\n")
	b.WriteString(opportunitySummary(op))

	return flowdock.InboxMessage{
		Subject: fmt.Sprintf("[chatter] %s – %s", op.Name, item.Actor.Name),
		Content: b.String(),
		Project: op.Account.Name,
	}
}
