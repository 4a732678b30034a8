package salesforce

import (
	"encoding/json"
	"fmt"
	"time"
)

// APITime is a custom time type that handles Salesforce API date formats.
// The API returns RFC3339 dates, but with the zone offset written without
// a colon (e.g. "2014-09-09T04:04:02.000+0000").
type APITime struct {
	time.Time
}

var apiTimeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999-0700",
	"2006-01-02T15:04:05-0700",
}

// UnmarshalJSON implements json.Unmarshaler for APITime
func (t *APITime) UnmarshalJSON(data []byte) error {
	var timeStr string
	if err := json.Unmarshal(data, &timeStr); err != nil {
		return err
	}

	if timeStr == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, format := range apiTimeFormats {
		if parsed, err := time.Parse(format, timeStr); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unable to parse time string: %s", timeStr)
}

// MarshalJSON implements json.Marshaler for APITime
func (t APITime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Named carries the Name of a relation (Owner, Account, CreatedBy, ...)
// selected through a SOQL relationship query.
type Named struct {
	Name string `json:"Name"`
}

// Opportunity is a Salesforce Opportunity record with the fields s2f
// watches, including the Futurice custom fields.
type Opportunity struct {
	ID             string   `json:"Id"`
	Name           string   `json:"Name"`
	StageName      string   `json:"StageName"`
	Amount         *float64 `json:"Amount"`
	Probability    *float64 `json:"Probability"`
	CloseDate      string   `json:"CloseDate"`
	Description    string   `json:"Description"`
	CreatedDate    APITime  `json:"CreatedDate"`
	ModifiedDate   APITime  `json:"LastModifiedDate"`
	CreatedBy      Named    `json:"CreatedBy"`
	LastModifiedBy Named    `json:"LastModifiedBy"`
	Owner          Named    `json:"Owner"`
	Account        Named    `json:"Account"`
	AvgHourPrice   *float64 `json:"AvgHourPrice__c"`
	TypeOfSales    string   `json:"TypeOfSales__c"`
	Team           string   `json:"FutuTeam__c"`
}

// Field is one watched Opportunity field. Get returns a comparable value:
// string, float64 or nil, so change detection is a plain != on the pair.
type Field struct {
	Label string
	Get   func(Opportunity) interface{}
}

// WatchedFields are the fields whose changes get posted, in display order.
var WatchedFields = []Field{
	{"Name", func(o Opportunity) interface{} { return o.Name }},
	{"Stage", func(o Opportunity) interface{} { return o.StageName }},
	{"Amount", func(o Opportunity) interface{} { return floatValue(o.Amount) }},
	{"Probability", func(o Opportunity) interface{} { return floatValue(o.Probability) }},
	{"Avg. hour price", func(o Opportunity) interface{} { return floatValue(o.AvgHourPrice) }},
	{"Close date", func(o Opportunity) interface{} { return o.CloseDate }},
	{"Type of sales", func(o Opportunity) interface{} { return o.TypeOfSales }},
	{"Description", func(o Opportunity) interface{} { return o.Description }},
	{"Owner", func(o Opportunity) interface{} { return o.Owner.Name }},
	{"Account", func(o Opportunity) interface{} { return o.Account.Name }},
	{"Team", func(o Opportunity) interface{} { return o.Team }},
}

func floatValue(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// Changed reports whether any watched field differs between the two records.
func Changed(old, new Opportunity) bool {
	for _, f := range WatchedFields {
		if f.Get(old) != f.Get(new) {
			return true
		}
	}
	return false
}

// QueryResponse is a page of SOQL query results.
type QueryResponse struct {
	TotalSize      int           `json:"totalSize"`
	Done           bool          `json:"done"`
	NextRecordsURL string        `json:"nextRecordsUrl"`
	Records        []Opportunity `json:"records"`
}

// ChatterItem is one entry of a chatter feed.
type ChatterItem struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	CreatedDate  APITime `json:"createdDate"`
	ModifiedDate APITime `json:"modifiedDate"`
	Actor        struct {
		Name string `json:"name"`
	} `json:"actor"`
	Body struct {
		Text string `json:"text"`
	} `json:"body"`
	Parent struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"parent"`
}

// ChatterFeed is one page of a chatter feed.
type ChatterFeed struct {
	Items       []ChatterItem `json:"items"`
	NextPageURL string        `json:"nextPageUrl"`
	UpdatesURL  string        `json:"updatesUrl"`
}

// ChatterDetail joins a chatter item with its parent Opportunity record.
type ChatterDetail struct {
	Item        ChatterItem
	Opportunity Opportunity
}

// APIVersion describes one REST API version of the instance.
type APIVersion struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}
