// Package redact scrubs secrets and personal data out of text that is about
// to be logged. Database drivers, the mail provider and the JWT library all
// echo their inputs in error strings, so anything derived from an error goes
// through Error before it reaches a log line.
package redact

import "regexp"

// Placeholders substituted for redacted values.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	HashPlaceholder       = "[REDACTED_HASH]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	HostPlaceholder       = "[REDACTED_HOST]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	StackPlaceholder      = "[REDACTED_STACK]"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// rules run in order. Earlier rules consume text that later, broader rules
// would otherwise split up, e.g. URL userinfo before host:port.
var rules = []rule{
	{
		regexp.MustCompile(`(?:panic: |goroutine \d+ \[)[\s\S]*?(?:\n\t[^\n]*)+`),
		StackPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mongodb(?:\+srv)?)://[^@\s/]+@`),
		"${1}://" + CredentialPlaceholder + "@",
	},
	{
		// E11000 errors quote the duplicated value, usually an email.
		regexp.MustCompile(`dup key: \{[^}]*\}`),
		"dup key: { " + CredentialPlaceholder + " }",
	},
	{
		regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		TokenPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9_\-.~+/]+=*`),
		"Bearer " + TokenPlaceholder,
	},
	{
		regexp.MustCompile(`\bSG\.[A-Za-z0-9_-]{6,}(?:\.[A-Za-z0-9_-]{6,})?`),
		KeyPlaceholder,
	},
	{
		regexp.MustCompile(`\$2[aby]?\$\d{2}\$[./A-Za-z0-9]{53}`),
		HashPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[=:]\s*['"]?[^'"&\s]+['"]?`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(?:api[_-]?key|secret|token|access[_-]?key)\s*[=:]\s*['"]?[A-Za-z0-9_\-.~+/]{8,}['"]?`),
		KeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		EmailPlaceholder,
	},
	{
		// Keywords are matched case-sensitively so prose like "delete task from store" survives.
		regexp.MustCompile(`\b(?:SELECT|INSERT|UPDATE|DELETE)\b[^;\n]*?\b(?:FROM|INTO|SET)\b[^;\n]*`),
		SQLPlaceholder,
	},
	{
		regexp.MustCompile(`(?:/[\w.-]+){2,}|[A-Za-z]:\\[^\\\s]+(?:\\[^\\\s]+)+`),
		PathPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9-]*(?:\.[A-Za-z0-9-]+)*:\d{2,5}\b`),
		HostPlaceholder,
	},
}

// String returns s with every sensitive fragment replaced by a placeholder.
func String(s string) string {
	for _, r := range rules {
		if s == "" {
			break
		}
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
