package domain

import "net/url"

// UTM query parameter names.
const (
	UTMSourceKey   = "utm_source"
	UTMMediumKey   = "utm_medium"
	UTMCampaignKey = "utm_campaign"
	UTMTermKey     = "utm_term"
	UTMContentKey  = "utm_content"
)

// UTMParams holds marketing attribution. A nil field means the parameter was absent,
// which is different from a captured value.
type UTMParams struct {
	Source   *string `json:"source,omitempty"`
	Medium   *string `json:"medium,omitempty"`
	Campaign *string `json:"campaign,omitempty"`
	Term     *string `json:"term,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// HasAny reports whether at least one parameter is present.
func (p UTMParams) HasAny() bool {
	return p.Source != nil || p.Medium != nil || p.Campaign != nil || p.Term != nil || p.Content != nil
}

// ExtractUTM reads the five utm_* parameters from an absolute URL. Relative or
// malformed input yields all five absent; this never fails.
func ExtractUTM(rawURL string) UTMParams {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return UTMParams{}
	}
	return UTMFromQuery(parsed.Query())
}

// UTMFromQuery extracts utm_* parameters from parsed query values.
// An empty value counts as absent.
func UTMFromQuery(values url.Values) UTMParams {
	pick := func(key string) *string {
		return StringPtr(values.Get(key))
	}
	return UTMParams{
		Source:   pick(UTMSourceKey),
		Medium:   pick(UTMMediumKey),
		Campaign: pick(UTMCampaignKey),
		Term:     pick(UTMTermKey),
		Content:  pick(UTMContentKey),
	}
}
