package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

func TestGenerateLeads(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	leads := generateLeads(rand.New(rand.NewSource(42)), 60, now)
	require.Len(t, leads, 60)

	phones := make(map[string]struct{})
	for _, lead := range leads {
		_, dup := phones[lead.Phone]
		assert.False(t, dup, lead.Phone)
		phones[lead.Phone] = struct{}{}

		_, verr := domain.ValidateSubmission(domain.LeadSubmission{
			Name:              lead.Name,
			Phone:             lead.Phone,
			RevisionTypeID:    lead.RevisionTypeID,
			RevisionTypeTitle: lead.RevisionTypeTitle,
			Consent:           lead.ConsentPrivacy,
		})
		assert.Nil(t, verr)
		assert.Equal(t, domain.LeadStatusNew, lead.Status)
		assert.False(t, lead.CreatedAt.After(now))
		if lead.UTM.HasAny() {
			assert.NotNil(t, lead.Referrer)
		}
	}

	again := generateLeads(rand.New(rand.NewSource(42)), 60, now)
	assert.Equal(t, leads, again, "same seed, same data")
}
