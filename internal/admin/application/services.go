package application

import (
	"context"

	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
)

// LeadRepository exposes admin reads on leads.
type LeadRepository interface {
	Find(ctx context.Context, filter LeadFilter, paging Paging) ([]admindomain.Lead, error)
	Count(ctx context.Context, filter LeadFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*admindomain.Lead, error)
	CountByRevisionType(ctx context.Context) (map[int]int64, error)
	CountBySource(ctx context.Context) (map[string]int64, error)
}

// LeadFilter expresses admin search criteria.
type LeadFilter struct {
	Status         string
	RevisionTypeID *int
	Keyword        string
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// LeadPage is one page of an admin listing.
type LeadPage struct {
	Items []admindomain.Lead
	Total int64
	Page  int
	Limit int
}

// LeadService describes admin lead use-cases.
type LeadService interface {
	List(ctx context.Context, filter LeadFilter, paging Paging) (*LeadPage, error)
	Detail(ctx context.Context, id string) (*admindomain.Lead, error)
	Stats(ctx context.Context) (*admindomain.LeadStats, error)
}
