package common

const (
	// MaxLeadRequestBody limits JSON request bodies for lead and session endpoints.
	MaxLeadRequestBody = 16 << 10
	// DefaultAdminPageSize is used when the admin list omits limit.
	DefaultAdminPageSize = 20
)
