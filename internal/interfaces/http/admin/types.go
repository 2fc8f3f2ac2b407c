package admin

import (
	"time"

	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
	publicdomain "github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

type adminUTMResponse struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

type adminLeadResponse struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Phone             string           `json:"phone"`
	RevisionTypeID    int              `json:"revisionTypeId"`
	RevisionTypeTitle string           `json:"revisionTypeTitle"`
	Status            string           `json:"status"`
	ConsentPrivacy    bool             `json:"consentPrivacy"`
	UserAgent         string           `json:"userAgent,omitempty"`
	IPAddress         string           `json:"ipAddress,omitempty"`
	Referrer          string           `json:"referrer,omitempty"`
	UTM               adminUTMResponse `json:"utm"`
	CreatedAt         time.Time        `json:"createdAt"`
}

type adminLeadListResponse struct {
	Items []adminLeadResponse `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// adminLeadResponseFromDomain はドメインの Lead を Admin UI 用レスポンスへ変換する。
func adminLeadResponseFromDomain(lead admindomain.Lead, loc *time.Location) adminLeadResponse {
	return adminLeadResponse{
		ID:                lead.ID,
		Name:              lead.Name,
		Phone:             lead.Phone,
		RevisionTypeID:    lead.RevisionTypeID,
		RevisionTypeTitle: lead.RevisionTypeTitle,
		Status:            lead.Status,
		ConsentPrivacy:    lead.ConsentPrivacy,
		UserAgent:         publicdomain.StringValue(lead.UserAgent),
		IPAddress:         publicdomain.StringValue(lead.IPAddress),
		Referrer:          publicdomain.StringValue(lead.Referrer),
		UTM: adminUTMResponse{
			Source:   publicdomain.StringValue(lead.UTM.Source),
			Medium:   publicdomain.StringValue(lead.UTM.Medium),
			Campaign: publicdomain.StringValue(lead.UTM.Campaign),
			Term:     publicdomain.StringValue(lead.UTM.Term),
			Content:  publicdomain.StringValue(lead.UTM.Content),
		},
		CreatedAt: lead.CreatedAt.In(loc),
	}
}
