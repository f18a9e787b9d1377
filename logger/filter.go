package logger

import (
	"net/url"
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output
const DefaultMaskValue = "***"

// FilterConfig defines which field, header and query parameter names are sensitive
type FilterConfig struct {
	// SensitiveFields are matched case-insensitively as substrings of a name
	SensitiveFields []string
	// MaskValue replaces sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig returns names commonly carrying credentials in headers,
// query strings and configuration.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd", "passphrase",
			"secret", "key", "token",
			"auth", "credential",
			"cookie", "session",
			"signature",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks sensitive values before they reach log output
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config selects DefaultFilterConfig
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// MaskValue returns the text substituted for sensitive values
func (f *SensitiveDataFilter) MaskValue() string {
	return f.config.MaskValue
}

// FilterString masks value when key is sensitive. URLs are always checked for
// embedded credentials.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if value == "" {
		return value
	}
	if f.isSensitiveField(key) {
		if isURL(value) {
			return f.MaskURL(value)
		}
		return f.config.MaskValue
	}
	if isURL(value) {
		return f.MaskURL(value)
	}
	return value
}

// FilterHeaders returns a copy of headers with sensitive values masked
func (f *SensitiveDataFilter) FilterHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, value := range headers {
		filtered[name] = f.FilterString(name, value)
	}
	return filtered
}

// FilterValue masks value when key is sensitive and descends into maps
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filterValue(key, value, DefaultMaxDepth)
}

// DefaultMaxDepth bounds recursion into nested maps
const DefaultMaxDepth = 8

func (f *SensitiveDataFilter) filterValue(key string, value any, depth int) any {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}
	if depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case string:
		return f.FilterString(key, v)
	case map[string]string:
		return f.FilterHeaders(v)
	case map[string]any:
		filtered := make(map[string]any, len(v))
		for k, inner := range v {
			filtered[k] = f.filterValue(k, inner, depth-1)
		}
		return filtered
	default:
		return value
	}
}

// FilterFields filters a map of fields for sensitive data
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

// MaskURL masks the password of the user info and the values of sensitive
// query parameters, keeping the rest of the URL intact.
func (f *SensitiveDataFilter) MaskURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return f.config.MaskValue
	}

	changed := false
	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), f.config.MaskValue)
			changed = true
		}
	}

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for name := range query {
			if f.isSensitiveField(name) {
				query.Set(name, f.config.MaskValue)
				changed = true
			}
		}
		if changed {
			parsed.RawQuery = query.Encode()
		}
	}

	if !changed {
		return raw
	}
	// url.URL escapes the mask inside user info
	return strings.ReplaceAll(parsed.String(), url.QueryEscape(f.config.MaskValue), f.config.MaskValue)
}

func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

func isURL(value string) bool {
	for _, scheme := range []string{"http://", "https://", "ftp://", "ftps://", "sftp://", "scp://"} {
		if strings.HasPrefix(value, scheme) {
			return true
		}
	}
	return false
}
