package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	minNameRunes          = 2
	minRevisionTitleRunes = 2
)

// LeadSubmission is one candidate lead as received from the form.
type LeadSubmission struct {
	Name              string
	Phone             string
	RevisionTypeID    int
	RevisionTypeTitle string
	Consent           bool
}

// ValidateForm checks the interactive form fields and reports every failing field.
// On success the normalized form is returned: trimmed name and 3-4-4 phone.
func ValidateForm(form LeadForm) (LeadForm, FieldErrors) {
	errs := FieldErrors{}

	name := strings.TrimSpace(form.Name)
	if !validName(name) {
		errs[FieldName] = MsgNameTooShort
	}

	phone := strings.TrimSpace(form.Phone)
	if !IsMobilePhone(phone) {
		errs[FieldPhone] = MsgInvalidPhone
	}

	if !form.Consent {
		errs[FieldConsent] = MsgConsentRequired
	}

	if !errs.Empty() {
		return form, errs
	}
	return LeadForm{Name: name, Phone: NormalizePhone(phone), Consent: true}, nil
}

// ValidateSubmission is the authoritative server side gate. Rules run in a fixed
// order and the first failure is returned; later rules are not evaluated.
func ValidateSubmission(sub LeadSubmission) (LeadSubmission, *ValidationError) {
	name := strings.TrimSpace(sub.Name)
	if !validName(name) {
		return sub, &ValidationError{Field: FieldName, Message: MsgNameTooShort}
	}

	phone := strings.TrimSpace(sub.Phone)
	if !IsMobilePhone(phone) {
		return sub, &ValidationError{Field: FieldPhone, Message: MsgInvalidPhone}
	}

	if !ValidRevisionTypeID(sub.RevisionTypeID) {
		return sub, &ValidationError{Field: FieldRevisionTypeID, Message: MsgInvalidRevisionType}
	}

	title := strings.TrimSpace(sub.RevisionTypeTitle)
	if utf8.RuneCountInString(title) < minRevisionTitleRunes {
		return sub, &ValidationError{Field: FieldRevisionTypeTitle, Message: MsgInvalidRevisionTitle}
	}

	if !sub.Consent {
		return sub, &ValidationError{Field: FieldConsent, Message: MsgConsentRequired}
	}

	return LeadSubmission{
		Name:              name,
		Phone:             NormalizePhone(phone),
		RevisionTypeID:    sub.RevisionTypeID,
		RevisionTypeTitle: title,
		Consent:           true,
	}, nil
}

// ValidRevisionTypeID accepts 0 (selection skipped) and the catalog ids 1..9.
func ValidRevisionTypeID(id int) bool {
	return id == RevisionTypeNone || (id >= 1 && id <= MaxRevisionTypeID)
}

func validName(name string) bool {
	return utf8.RuneCountInString(name) >= minNameRunes
}
