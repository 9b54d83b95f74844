package testutil

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// SensitiveKeys match field, query and header names whose values are
// replaced wholesale.
var SensitiveKeys = []string{
	`(?i)passw(or)?d`,
	`(?i)^pwd$`,
	`(?i)secret`,
	`סיסמ`,
	`(?i)^(user(name)?|uid|userid|login)$`,
	`(?i)(^|_)id(entity)?(number)?$`,
	`(?i)token`,
	`(?i)session`,
	`(?i)auth`,
	`(?i)jwt`,
	`(?i)api_?key`,
	`(?i)credential`,
	`(?i)^otp`,
}

// SensitiveHeaders are always redacted.
var SensitiveHeaders = map[string]bool{
	"authorization":            true,
	"cookie":                   true,
	"set-cookie":               true,
	"x-auth-token":             true,
	"x-api-key":                true,
	"x-csrf-token":             true,
	"x-xsrf-token":             true,
	"requestverificationtoken": true,
	"proxy-authorization":      true,
}

// ValueRule masks sensitive values wherever they appear in text.
type ValueRule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}

// DefaultValueRules cover the data Leumi pages and responses expose.
var DefaultValueRules = []ValueRule{
	{
		regexp.MustCompile(`\b\d{2,4}-\d{3,8}/\d{1,3}\b`),
		"XXX-XXXXX/XX",
		"Account number (branch-account/suffix)",
	},
	{
		regexp.MustCompile(`\b\d{9}\b`),
		"XXXXXXXXX",
		"Israeli ID number",
	},
	{
		regexp.MustCompile(`\b05\d-?\d{7}\b`),
		"05X-XXXXXXX",
		"Mobile phone number",
	},
	{
		regexp.MustCompile(`(?i)(token|csrf|session)["\s:=]+["']?[a-zA-Z0-9_-]{20,}["']?`),
		`$1="REDACTED"`,
		"Token",
	},
	{
		regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		`document.cookie="REDACTED"`,
		"Cookie",
	},
}

// Sanitizer redacts credentials and personal data from recordings and
// fixtures. JSON is walked structurally, including JSON documents nested in
// string values such as the bank's jsonResp envelope.
type Sanitizer struct {
	keys   []*regexp.Regexp
	values []ValueRule
}

func NewSanitizer(keys []string, values []ValueRule) *Sanitizer {
	s := &Sanitizer{values: values}
	for _, k := range keys {
		s.keys = append(s.keys, regexp.MustCompile(k))
	}
	return s
}

func DefaultSanitizer() *Sanitizer {
	return NewSanitizer(SensitiveKeys, DefaultValueRules)
}

// SanitizeHAR returns a redacted copy of har.
func (s *Sanitizer) SanitizeHAR(har *HAR) *HAR {
	out := &HAR{Entries: make([]Entry, len(har.Entries))}

	for i, e := range har.Entries {
		req := e.Request
		req.URL = s.url(req.URL)
		req.Headers = s.headers(req.Headers)
		if req.PostData != nil {
			pd := *req.PostData
			pd.Text = s.Body(pd.Text)
			req.PostData = &pd
		}

		resp := e.Response
		resp.Headers = s.headers(resp.Headers)
		if resp.Content.Encoding != "base64" {
			resp.Content.Text = s.Body(resp.Content.Text)
		}

		out.Entries[i] = Entry{StartedDateTime: e.StartedDateTime, Request: req, Response: resp}
	}

	return out
}

// Body redacts a request or response body of any shape.
func (s *Sanitizer) Body(body string) string {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		return body
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		if out, ok := s.json(trimmed); ok {
			return out
		}
	case strings.Contains(trimmed, "=") && !strings.ContainsAny(trimmed, "<> \n"):
		if values, err := url.ParseQuery(trimmed); err == nil {
			for key := range values {
				if s.sensitiveKey(key) {
					values.Set(key, redacted)
				}
			}
			return s.Text(values.Encode())
		}
	}
	return s.Text(body)
}

// Text applies the value rules to free text such as HTML.
func (s *Sanitizer) Text(text string) string {
	for _, rule := range s.values {
		text = rule.Pattern.ReplaceAllString(text, rule.Replacement)
	}
	return text
}

// Scan counts the value-rule matches in text by rule description.
func (s *Sanitizer) Scan(text string) map[string]int {
	found := make(map[string]int)
	for _, rule := range s.values {
		if n := len(rule.Pattern.FindAllStringIndex(text, -1)); n > 0 {
			found[rule.Description] += n
		}
	}
	return found
}

func (s *Sanitizer) json(body string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}

	out, err := marshalNoEscape(s.walk(v))
	if err != nil {
		return "", false
	}
	return out, true
}

func (s *Sanitizer) walk(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if s.sensitiveKey(k) {
				t[k] = redacted
				continue
			}
			t[k] = s.walk(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = s.walk(t[i])
		}
		return t
	case string:
		trimmed := strings.TrimSpace(t)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			if nested, ok := s.json(trimmed); ok {
				return nested
			}
		}
		return s.Text(t)
	default:
		return v
	}
}

func (s *Sanitizer) url(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	changed := false
	for key := range query {
		if s.sensitiveKey(key) {
			query.Set(key, redacted)
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func (s *Sanitizer) headers(headers []Header) []Header {
	out := make([]Header, len(headers))
	for i, h := range headers {
		out[i] = h
		if SensitiveHeaders[strings.ToLower(h.Name)] || s.sensitiveKey(h.Name) {
			out[i].Value = redacted
		}
	}
	return out
}

func (s *Sanitizer) sensitiveKey(key string) bool {
	for _, re := range s.keys {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

func marshalNoEscape(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
