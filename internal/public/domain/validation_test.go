package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMobilePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"010-1234-5678", true},
		{"01012345678", true},
		{"011-9876-5432", true},
		{"019-0000-0000", true},
		{"02-1234-5678", false},
		{"010-123-4567", false},
		{"abc-1234-5678", false},
		{"010-12345678", false},
		{"0101234-5678", false},
		{"010-1234-56789", false},
		{"", false},
		{" 010-1234-5678", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMobilePhone(tt.phone))
		})
	}
}

func TestValidateForm(t *testing.T) {
	t.Run("valid form is normalized", func(t *testing.T) {
		got, errs := ValidateForm(LeadForm{Name: "  홍길동 ", Phone: "01012345678", Consent: true})
		require.True(t, errs.Empty())
		assert.Equal(t, LeadForm{Name: "홍길동", Phone: "010-1234-5678", Consent: true}, got)
	})

	t.Run("every failing field is reported", func(t *testing.T) {
		_, errs := ValidateForm(LeadForm{Name: "", Phone: "02-1234-5678", Consent: false})
		assert.Equal(t, FieldErrors{
			FieldName:    MsgNameTooShort,
			FieldPhone:   MsgInvalidPhone,
			FieldConsent: MsgConsentRequired,
		}, errs)
	})

	t.Run("name boundary", func(t *testing.T) {
		_, errs := ValidateForm(LeadForm{Name: "A", Phone: "010-1234-5678", Consent: true})
		assert.Equal(t, MsgNameTooShort, errs[FieldName])

		_, errs = ValidateForm(LeadForm{Name: "AB", Phone: "010-1234-5678", Consent: true})
		assert.True(t, errs.Empty())
	})

	t.Run("idempotent on normalized record", func(t *testing.T) {
		first, errs := ValidateForm(LeadForm{Name: "김철수", Phone: "01098765432", Consent: true})
		require.True(t, errs.Empty())
		second, errs := ValidateForm(first)
		require.True(t, errs.Empty())
		assert.Equal(t, first, second)
	})

	t.Run("odd input never panics", func(t *testing.T) {
		inputs := []LeadForm{
			{},
			{Name: "\xff\xfe", Phone: "\x00"},
			{Name: "   ", Phone: "-----------", Consent: true},
		}
		for _, in := range inputs {
			assert.NotPanics(t, func() {
				_, errs := ValidateForm(in)
				assert.False(t, errs.Empty())
			})
		}
	})
}

func TestValidateSubmission(t *testing.T) {
	valid := LeadSubmission{
		Name:              "홍길동",
		Phone:             "010-1234-5678",
		RevisionTypeID:    3,
		RevisionTypeTitle: "보형물이 휘어 보이는 경우",
		Consent:           true,
	}

	tests := []struct {
		name      string
		mutate    func(*LeadSubmission)
		wantField string
	}{
		{"valid", func(*LeadSubmission) {}, ""},
		{"name too short", func(s *LeadSubmission) { s.Name = "A" }, FieldName},
		{"name two chars", func(s *LeadSubmission) { s.Name = "AB" }, ""},
		{"phone landline", func(s *LeadSubmission) { s.Phone = "02-1234-5678" }, FieldPhone},
		{"phone without separators", func(s *LeadSubmission) { s.Phone = "01012345678" }, ""},
		{"category skipped", func(s *LeadSubmission) { s.RevisionTypeID = 0 }, ""},
		{"category negative", func(s *LeadSubmission) { s.RevisionTypeID = -1 }, FieldRevisionTypeID},
		{"category ten", func(s *LeadSubmission) { s.RevisionTypeID = 10 }, FieldRevisionTypeID},
		{"category nine", func(s *LeadSubmission) { s.RevisionTypeID = 9 }, ""},
		{"title missing", func(s *LeadSubmission) { s.RevisionTypeTitle = "" }, FieldRevisionTypeTitle},
		{"title one char", func(s *LeadSubmission) { s.RevisionTypeTitle = "가" }, FieldRevisionTypeTitle},
		{"consent missing", func(s *LeadSubmission) { s.Consent = false }, FieldConsent},
		{"name checked before phone", func(s *LeadSubmission) { s.Name = ""; s.Phone = "bad" }, FieldName},
		{"phone checked before category", func(s *LeadSubmission) { s.Phone = "bad"; s.RevisionTypeID = 42 }, FieldPhone},
		{"category checked before title", func(s *LeadSubmission) { s.RevisionTypeID = 42; s.RevisionTypeTitle = "" }, FieldRevisionTypeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mutate(&sub)
			_, verr := ValidateSubmission(sub)
			if tt.wantField == "" {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateSubmissionCategoryRange(t *testing.T) {
	for id := 0; id <= 9; id++ {
		assert.True(t, ValidRevisionTypeID(id), "id %d", id)
	}
	for _, id := range []int{-100, -1, 10, 11, 1 << 30} {
		assert.False(t, ValidRevisionTypeID(id), "id %d", id)
	}
}

func TestValidateSubmissionIsIdempotent(t *testing.T) {
	first, verr := ValidateSubmission(LeadSubmission{
		Name:              " 홍길동 ",
		Phone:             "01012345678",
		RevisionTypeID:    0,
		RevisionTypeTitle: RevisionTypeNoneTitle,
		Consent:           true,
	})
	require.Nil(t, verr)
	assert.Equal(t, "010-1234-5678", first.Phone)
	assert.Equal(t, "홍길동", first.Name)

	second, verr := ValidateSubmission(first)
	require.Nil(t, verr)
	assert.Equal(t, first, second)
}

func TestFormatPhone(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"010":             "010",
		"0101":            "010-1",
		"0101234":         "010-1234",
		"01012345":        "010-1234-5",
		"01012345678":     "010-1234-5678",
		"010-1234-5678":   "010-1234-5678",
		"010 1234 5678 9": "010-1234-5678",
		"tel:010.1234.56": "010-1234-56",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPhone(in), "input %q", in)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "010-1234-5678", NormalizePhone("01012345678"))
	assert.Equal(t, "010-1234-5678", NormalizePhone("010-1234-5678"))
	assert.Equal(t, "02-123-4567", NormalizePhone("02-123-4567"))
}
