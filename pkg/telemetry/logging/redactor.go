package logging

import (
	"log/slog"
	"strings"
)

// Mask replaces redacted values.
const Mask = "***"

// sensitiveKeys are attribute-name fragments whose values are always masked.
var sensitiveKeys = []string{
	"access-token", "access_token", "token",
	"api_key", "apikey", "api-key",
	"authorization", "secret", "password",
}

// Redactor masks credentials in log attributes.
type Redactor struct {
	secrets []string
}

// NewRedactor creates a Redactor that also masks the given literal values.
// Empty values are ignored.
func NewRedactor(secrets []string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// RedactString replaces every occurrence of a registered secret in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, secret := range r.secrets {
		value = strings.ReplaceAll(value, secret, Mask)
	}
	return value
}

// IsSensitiveKey reports whether an attribute name indicates a credential.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}

	if IsSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, Mask)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if redacted := r.RedactString(a.Value.String()); redacted != a.Value.String() {
			return slog.String(a.Key, redacted)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			if redacted := r.RedactString(err.Error()); redacted != err.Error() {
				return slog.String(a.Key, redacted)
			}
		}
	}
	return a
}
