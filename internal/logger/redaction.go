package logger

import (
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Redactor scrubs credentials from log output. Launch options and navigated
// URLs routinely carry proxy passwords and tokens.
type Redactor struct {
	rules []rule
}

// NewRedactor creates a redactor with the default rules
func NewRedactor() *Redactor {
	return &Redactor{
		rules: []rule{
			// user:password@ in URLs, keeping scheme and host
			{regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/\s:@"]+:[^/\s@"]+@`), "${1}" + redacted + "@"},
			// token-like query parameters
			{regexp.MustCompile(`(?i)([?&](?:access_token|token|api_key|apikey|key|auth|sig|signature)=)[^&\s"]+`), "${1}" + redacted},
			{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._~+/=-]+`), "Bearer " + redacted},
			{regexp.MustCompile(`Basic\s+[a-zA-Z0-9+/=]{8,}`), "Basic " + redacted},
			{regexp.MustCompile(`(?i)(password|passwd|pwd|secret)(\\?"?\s*[:=]\s*\\?"?)[^\s"\\,}]+`), "${1}${2}" + redacted},
			{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), redacted},
		},
	}
}

// AddPattern adds a rule replacing every match of pattern
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.rules = append(r.rules, rule{re: re, repl: redacted})
	return nil
}

// Redact applies every rule to s
func (r *Redactor) Redact(s string) string {
	for _, rl := range r.rules {
		s = rl.re.ReplaceAllString(s, rl.repl)
	}
	return s
}

// Wrap returns a writer that redacts before writing to w
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{
		writer:   w,
		redactor: r,
	}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success since redaction changes the length
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := w.writer.Write([]byte(w.redactor.Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
