package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/revision-landing-services/api/internal/admin/domain"
	publicdomain "github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

type fakeLeadService struct {
	leads      []admindomain.Lead
	err        error
	lastFilter adminapp.LeadFilter
	lastPaging adminapp.Paging
}

func (f *fakeLeadService) List(_ context.Context, filter adminapp.LeadFilter, paging adminapp.Paging) (*adminapp.LeadPage, error) {
	f.lastFilter, f.lastPaging = filter, paging
	if f.err != nil {
		return nil, f.err
	}
	return &adminapp.LeadPage{Items: f.leads, Total: int64(len(f.leads)), Page: paging.Page, Limit: paging.Limit}, nil
}

func (f *fakeLeadService) Detail(_ context.Context, id string) (*admindomain.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, lead := range f.leads {
		if lead.ID == id {
			return &lead, nil
		}
	}
	return nil, publicdomain.ErrLeadNotFound
}

func (f *fakeLeadService) Stats(context.Context) (*admindomain.LeadStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &admindomain.LeadStats{
		Total:    int64(len(f.leads)),
		BySource: []admindomain.CountBucket{{Key: "naver", Label: "naver", Count: 1}},
	}, nil
}

func newRouter(svc adminapp.LeadService) chi.Router {
	seoul, _ := time.LoadLocation("Asia/Seoul")
	h := NewHandler(Config{Logger: log.New(io.Discard, "", 0), LeadService: svc, Location: seoul})
	r := chi.NewRouter()
	r.Route("/admin", h.Register)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func sampleLead() admindomain.Lead {
	return admindomain.Lead{
		ID:                "65f0c0ffee",
		Name:              "김민지",
		Phone:             "010-1234-5678",
		RevisionTypeID:    3,
		RevisionTypeTitle: publicdomain.RevisionTypeTitle(3),
		Status:            publicdomain.LeadStatusNew,
		ConsentPrivacy:    true,
		IPAddress:         publicdomain.StringPtr("203.0.113.5"),
		UTM:               publicdomain.UTMParams{Source: publicdomain.StringPtr("naver")},
		CreatedAt:         time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC),
	}
}

func TestLeadList(t *testing.T) {
	svc := &fakeLeadService{leads: []admindomain.Lead{sampleLead()}}
	rec := get(newRouter(svc), "/admin/leads?status=new&revisionTypeId=3&keyword=%20김%20&page=2&limit=50")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "new", svc.lastFilter.Status)
	require.NotNil(t, svc.lastFilter.RevisionTypeID)
	assert.Equal(t, 3, *svc.lastFilter.RevisionTypeID)
	assert.Equal(t, "김", svc.lastFilter.Keyword)
	assert.Equal(t, adminapp.Paging{Page: 2, Limit: 50}, svc.lastPaging)

	var body adminLeadListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, int64(1), body.Total)
	item := body.Items[0]
	assert.Equal(t, "203.0.113.5", item.IPAddress)
	assert.Equal(t, "naver", item.UTM.Source)
	assert.Contains(t, rec.Body.String(), `"createdAt":"2025-03-01T09:30:00+09:00"`)
}

func TestLeadListDefaults(t *testing.T) {
	svc := &fakeLeadService{}
	rec := get(newRouter(svc), "/admin/leads?page=0&limit=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.lastFilter.RevisionTypeID)
	assert.Equal(t, adminapp.Paging{Page: 1, Limit: 20}, svc.lastPaging)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestLeadListRejectsBadType(t *testing.T) {
	for _, q := range []string{"x", "10", "-1"} {
		rec := get(newRouter(&fakeLeadService{}), "/admin/leads?revisionTypeId="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	rec := get(newRouter(&fakeLeadService{}), "/admin/leads?revisionTypeId=0")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLeadDetail(t *testing.T) {
	svc := &fakeLeadService{leads: []admindomain.Lead{sampleLead()}}
	router := newRouter(svc)

	rec := get(router, "/admin/leads/65f0c0ffee")
	require.Equal(t, http.StatusOK, rec.Code)
	var body adminLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "김민지", body.Name)
	assert.Equal(t, 3, body.RevisionTypeID)

	assert.Equal(t, http.StatusNotFound, get(router, "/admin/leads/missing").Code)
}

func TestLeadStats(t *testing.T) {
	svc := &fakeLeadService{leads: []admindomain.Lead{sampleLead()}}
	rec := get(newRouter(svc), "/admin/leads/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats admindomain.LeadStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, "naver", stats.BySource[0].Key)
}

func TestServiceFailures(t *testing.T) {
	router := newRouter(&fakeLeadService{err: errors.New("db down")})
	for _, target := range []string{"/admin/leads", "/admin/leads/stats", "/admin/leads/abc"} {
		rec := get(router, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "db down")
	}
}
