// internal/dispatcher/sanitize.go
package dispatcher

import "regexp"

// Sanitizer redacts sensitive material from upstream error messages before
// they reach end users. Validation errors are not sanitized; they echo the
// caller's own input back (collision and ambiguity messages must name the
// conflicting inputs).
type Sanitizer struct {
	production bool
}

func NewSanitizer(production bool) *Sanitizer {
	return &Sanitizer{production: production}
}

var (
	credentialRe = regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password|bearer)["'=:\s]+[\w\-.~+/]+=*`)
	emailRe      = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	ipRe         = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	pathRe       = regexp.MustCompile(`(?:/[\w.-]+){2,}`)
	uuidRe       = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
)

// Sanitize redacts credentials always, and additionally emails, IPs,
// paths, and internal IDs in production. Development keeps those for
// debugging; they are already past the credential pass.
func (s *Sanitizer) Sanitize(message string) string {
	out := credentialRe.ReplaceAllString(message, "$1=[CREDENTIAL_REDACTED]")
	if !s.production {
		return out
	}
	out = emailRe.ReplaceAllString(out, "[EMAIL_REDACTED]")
	out = ipRe.ReplaceAllString(out, "[IP_REDACTED]")
	out = uuidRe.ReplaceAllString(out, "[ID_REDACTED]")
	out = pathRe.ReplaceAllString(out, "[PATH_REDACTED]")
	return out
}
