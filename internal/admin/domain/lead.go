package domain

import (
	publicdomain "github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// Lead is the admin view of a consultation request. Admins read leads; they are
// never modified by this service.
type Lead = publicdomain.Lead

// UnknownSource labels leads that arrived without utm_source.
const UnknownSource = "(none)"

// CountBucket is one group in a lead breakdown.
type CountBucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// LeadStats summarizes stored leads.
type LeadStats struct {
	Total          int64         `json:"total"`
	ByRevisionType []CountBucket `json:"byRevisionType"`
	BySource       []CountBucket `json:"bySource"`
}
