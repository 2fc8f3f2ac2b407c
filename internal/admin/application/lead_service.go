package application

import (
	"context"
	"sort"
	"strconv"

	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
	publicdomain "github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type leadService struct {
	repo LeadRepository
}

func NewLeadService(repo LeadRepository) LeadService {
	return &leadService{repo: repo}
}

func (s *leadService) List(ctx context.Context, filter LeadFilter, paging Paging) (*LeadPage, error) {
	paging = normalizePaging(paging)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Find(ctx, filter, paging)
	if err != nil {
		return nil, err
	}
	return &LeadPage{Items: items, Total: total, Page: paging.Page, Limit: paging.Limit}, nil
}

func (s *leadService) Detail(ctx context.Context, id string) (*admindomain.Lead, error) {
	return s.repo.FindByID(ctx, id)
}

// Stats lists every catalog type (zero counts included) followed by the "none"
// bucket, and sources by descending count.
func (s *leadService) Stats(ctx context.Context) (*admindomain.LeadStats, error) {
	byType, err := s.repo.CountByRevisionType(ctx)
	if err != nil {
		return nil, err
	}
	bySource, err := s.repo.CountBySource(ctx)
	if err != nil {
		return nil, err
	}

	stats := &admindomain.LeadStats{
		ByRevisionType: make([]admindomain.CountBucket, 0, publicdomain.MaxRevisionTypeID+1),
		BySource:       make([]admindomain.CountBucket, 0, len(bySource)),
	}
	for _, rt := range publicdomain.RevisionTypes() {
		stats.ByRevisionType = append(stats.ByRevisionType, admindomain.CountBucket{
			Key:   strconv.Itoa(rt.ID),
			Label: rt.Title,
			Count: byType[rt.ID],
		})
	}
	stats.ByRevisionType = append(stats.ByRevisionType, admindomain.CountBucket{
		Key:   strconv.Itoa(publicdomain.RevisionTypeNone),
		Label: publicdomain.RevisionTypeNoneTitle,
		Count: byType[publicdomain.RevisionTypeNone],
	})
	for _, count := range byType {
		stats.Total += count
	}

	for source, count := range bySource {
		label := source
		if label == "" {
			label = admindomain.UnknownSource
		}
		stats.BySource = append(stats.BySource, admindomain.CountBucket{Key: source, Label: label, Count: count})
	}
	sort.SliceStable(stats.BySource, func(i, j int) bool {
		if stats.BySource[i].Count == stats.BySource[j].Count {
			return stats.BySource[i].Key < stats.BySource[j].Key
		}
		return stats.BySource[i].Count > stats.BySource[j].Count
	})

	return stats, nil
}

func normalizePaging(p Paging) Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}
