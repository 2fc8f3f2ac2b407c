package domain

import "time"

// LeadStatusNew is the only status this service ever writes. Later transitions
// (contacted, booked, ...) are owned by the CRM.
const LeadStatusNew = "new"

// Lead represents a persisted consultation request. It is immutable once created.
type Lead struct {
	ID                string
	Name              string
	Phone             string
	RevisionTypeID    int
	RevisionTypeTitle string
	UserAgent         *string
	IPAddress         *string
	Referrer          *string
	UTM               UTMParams
	Status            string
	ConsentPrivacy    bool
	CreatedAt         time.Time
}

// LeadForm is the shape checked by the schema validator.
type LeadForm struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Consent bool   `json:"consent"`
}

// StringPtr returns nil for blank strings so optional request metadata stays absent.
func StringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// StringValue dereferences an optional string.
func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
