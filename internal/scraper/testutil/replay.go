package testutil

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Replayer serves recorded responses to a hijacked page. Requests are
// matched by method and URL; when one URL was recorded several times (the
// bank's broker endpoint serves every module at one path) the recordings are
// served in order and the last one repeats.
type Replayer struct {
	mu sync.Mutex

	exact    map[string]*sequence
	fallback map[string]*sequence

	// queryKeys are the query parameters kept in the fallback key.
	queryKeys   []string
	passthrough bool
	log         *zap.Logger

	served int
	missed []string
}

type sequence struct {
	entries []*Entry
	next    int
}

func (s *sequence) pop() *Entry {
	e := s.entries[s.next]
	if s.next < len(s.entries)-1 {
		s.next++
	}
	return e
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithPassthrough lets unmatched requests reach the network. By default they
// get a 404.
func WithPassthrough(enabled bool) ReplayerOption {
	return func(r *Replayer) {
		r.passthrough = enabled
	}
}

// WithQueryKeys names query parameters that still distinguish requests when
// the exact URL did not match, e.g. "moduleName".
func WithQueryKeys(keys ...string) ReplayerOption {
	return func(r *Replayer) {
		r.queryKeys = keys
	}
}

func WithReplayLogger(log *zap.Logger) ReplayerOption {
	return func(r *Replayer) {
		r.log = log
	}
}

func NewReplayer(har *HAR, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		exact:    make(map[string]*sequence),
		fallback: make(map[string]*sequence),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := range har.Entries {
		e := &har.Entries[i]
		add(r.exact, exactKey(e.Request.Method, e.Request.URL), e)
		if k, ok := r.fallbackKey(e.Request.Method, e.Request.URL); ok {
			add(r.fallback, k, e)
		}
	}

	return r
}

func add(m map[string]*sequence, key string, e *Entry) {
	s, ok := m[key]
	if !ok {
		s = &sequence{}
		m[key] = s
	}
	s.entries = append(s.entries, e)
}

// Middleware returns a hijack handler. Use with
// router.MustAdd("*", replayer.Middleware()).
func (r *Replayer) Middleware() func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		method := h.Request.Method()
		reqURL := h.Request.URL().String()

		entry := r.match(method, reqURL)
		if entry == nil {
			r.log.Debug("replay miss", zap.String("method", method), zap.String("url", reqURL))
			if r.passthrough {
				_ = h.LoadResponse(http.DefaultClient, true)
				return
			}
			serveNotFound(h)
			return
		}

		entry = r.followRedirects(entry)
		r.log.Debug("replay hit",
			zap.String("method", method),
			zap.String("url", reqURL),
			zap.Int("status", entry.Response.Status),
		)
		serveEntry(h, entry)
	}
}

func (r *Replayer) match(method, reqURL string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.exact[exactKey(method, reqURL)]; ok {
		r.served++
		return s.pop()
	}
	if k, ok := r.fallbackKey(method, reqURL); ok {
		if s, ok := r.fallback[k]; ok {
			r.served++
			return s.pop()
		}
	}

	r.missed = append(r.missed, method+" "+reqURL)
	return nil
}

// followRedirects resolves a recorded 3xx chain to its final entry. A
// target missing from the recording ends the chain.
func (r *Replayer) followRedirects(entry *Entry) *Entry {
	const maxRedirects = 10

	current := entry
	for n := 0; n < maxRedirects; n++ {
		if current.Response.Status < 300 || current.Response.Status >= 400 {
			return current
		}
		location := current.Response.Header("Location")
		if location == "" {
			return current
		}
		if base, err := url.Parse(current.Request.URL); err == nil {
			if ref, err := base.Parse(location); err == nil {
				location = ref.String()
			}
		}

		next := r.match(http.MethodGet, location)
		if next == nil {
			r.log.Debug("redirect target not recorded", zap.String("url", location))
			return current
		}
		current = next
	}
	return current
}

func serveEntry(h *rod.Hijack, entry *Entry) {
	resp := entry.Response

	var headers []*proto.FetchHeaderEntry
	hasContentType := false
	for _, hd := range resp.Headers {
		switch strings.ToLower(hd.Name) {
		case "content-encoding", "content-length", "location":
			continue
		case "content-type":
			hasContentType = true
		}
		headers = append(headers, &proto.FetchHeaderEntry{Name: hd.Name, Value: hd.Value})
	}
	if !hasContentType && resp.Content.MimeType != "" {
		headers = append(headers, &proto.FetchHeaderEntry{Name: "Content-Type", Value: resp.Content.MimeType})
	}

	payload := h.Response.Payload()
	payload.ResponseCode = resp.Status
	payload.ResponseHeaders = headers
	payload.Body = resp.Content.Bytes()
}

func serveNotFound(h *rod.Hijack) {
	payload := h.Response.Payload()
	payload.ResponseCode = http.StatusNotFound
	payload.ResponseHeaders = []*proto.FetchHeaderEntry{
		{Name: "Content-Type", Value: "application/json"},
	}
	payload.Body = []byte(`{"error": "no recording found for URL"}`)
}

// ReplayStats summarizes what a replayer indexed and served.
type ReplayStats struct {
	ExactKeys    int
	FallbackKeys int
	Served       int
	Missed       []string
}

func (r *Replayer) Stats() ReplayStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ReplayStats{
		ExactKeys:    len(r.exact),
		FallbackKeys: len(r.fallback),
		Served:       r.served,
		Missed:       append([]string(nil), r.missed...),
	}
}

func exactKey(method, rawURL string) string {
	return strings.ToUpper(method) + " " + rawURL
}

// fallbackKey is method, scheme, host and path plus the configured query
// parameters in sorted order.
func (r *Replayer) fallbackKey(method, rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(u.Scheme + "://" + u.Host + u.Path)

	keys := append([]string(nil), r.queryKeys...)
	sort.Strings(keys)
	q := u.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			b.WriteString("|" + k + "=" + v)
		}
	}
	return b.String(), true
}
