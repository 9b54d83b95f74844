// Package testutil records, sanitizes and replays browser traffic in HAR
// form so scraper flows can be tested without the bank.
package testutil

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
)

// HAR is the subset of HAR 1.2 that replay and sanitizing need. Files are
// read with or without the DevTools "log" wrapper and always written with it,
// so a saved file opens in the browser's network panel.
type HAR struct {
	Entries []Entry `json:"entries"`
}

type Entry struct {
	StartedDateTime string   `json:"startedDateTime,omitempty"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
}

type Request struct {
	Method   string    `json:"method"`
	URL      string    `json:"url"`
	Headers  []Header  `json:"headers,omitempty"`
	PostData *PostData `json:"postData,omitempty"`
}

type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type Response struct {
	Status  int      `json:"status"`
	Headers []Header `json:"headers,omitempty"`
	Content Content  `json:"content"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Content struct {
	MimeType string `json:"mimeType"`
	// Text is plain, or base64 when Encoding says so.
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// Bytes returns the decoded body. Undecodable base64 is returned as is.
func (c Content) Bytes() []byte {
	if c.Encoding == "base64" {
		if b, err := base64.StdEncoding.DecodeString(c.Text); err == nil {
			return b
		}
	}
	return []byte(c.Text)
}

// Header returns the first header named name, case-insensitively.
func (r Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Body returns the request body, empty when there is none.
func (r Request) Body() string {
	if r.PostData == nil {
		return ""
	}
	return r.PostData.Text
}

// Find returns the entries for method and the exact url, in recorded order.
func (h *HAR) Find(method, url string) []*Entry {
	var found []*Entry
	for i := range h.Entries {
		e := &h.Entries[i]
		if strings.EqualFold(e.Request.Method, method) && e.Request.URL == url {
			found = append(found, e)
		}
	}
	return found
}

type harFile struct {
	Log *harLog `json:"log,omitempty"`
	// Entries is set by files saved without the wrapper.
	Entries []Entry `json:"entries,omitempty"`
}

type harLog struct {
	Version string     `json:"version"`
	Creator harCreator `json:"creator"`
	Entries []Entry    `json:"entries"`
}

type harCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ParseHAR decodes a HAR document.
func ParseHAR(data []byte) (*HAR, error) {
	var f harFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	if f.Log != nil {
		return &HAR{Entries: f.Log.Entries}, nil
	}
	return &HAR{Entries: f.Entries}, nil
}

// LoadHAR reads a HAR file.
func LoadHAR(path string) (*HAR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}
	return ParseHAR(data)
}

// SaveHAR writes har to path in the wrapped HAR 1.2 layout.
func SaveHAR(path string, har *HAR) error {
	f := harFile{Log: &harLog{
		Version: "1.2",
		Creator: harCreator{Name: "leumi-scraper", Version: "1"},
		Entries: har.Entries,
	}}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}

// MustLoadHAR loads a HAR file and fails the test if it cannot be loaded.
func MustLoadHAR(t *testing.T, path string) *HAR {
	t.Helper()

	har, err := LoadHAR(path)
	if err != nil {
		t.Fatalf("failed to load HAR file %s: %v", path, err)
	}
	return har
}
