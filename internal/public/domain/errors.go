package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateLead is returned by repositories when the phone number already exists.
	ErrDuplicateLead = errors.New("lead with the same phone already exists")
	// ErrLeadNotFound is returned when a lead lookup misses.
	ErrLeadNotFound = errors.New("lead not found")
)

// Field names used in validation errors.
const (
	FieldName              = "name"
	FieldPhone             = "phone"
	FieldConsent           = "consent"
	FieldRevisionTypeID    = "revisionTypeId"
	FieldRevisionTypeTitle = "revisionTypeTitle"
)

// User facing validation messages.
const (
	MsgNameTooShort         = "이름은 2자 이상 입력해주세요."
	MsgInvalidPhone         = "올바른 휴대폰 번호를 입력해주세요."
	MsgConsentRequired      = "개인정보 수집 및 이용에 동의해주세요."
	MsgInvalidRevisionType  = "유형 정보가 올바르지 않습니다."
	MsgInvalidRevisionTitle = "유형 제목이 올바르지 않습니다."
)

// ValidationError is the first rule a submission tripped.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StorageError wraps a persistence failure that is not a duplicate.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FieldErrors maps a form field to its user facing message.
type FieldErrors map[string]string

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}
