package leumi

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/bank/testutil"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

// fakeResponse is one scripted filter response. A zero value blocks until
// the context expires.
type fakeResponse struct {
	body []byte
	err  error
}

// fakePage is a scripted in-memory Page. Elements are addressed by their
// locator selector; anything not marked visible never appears.
type fakePage struct {
	mu sync.Mutex

	visible    map[string]bool
	clickErr   map[string]error
	panicOn    string
	raceWinner int
	html       string
	responses  []fakeResponse

	calls  []string
	filled map[string]string
	closed int
}

func newFakePage(t *testing.T) *fakePage {
	site := DefaultSite()
	return &fakePage{
		visible: map[string]bool{
			site.Search.Advanced.Selector: true,
			site.Search.FromDate.Selector: true,
		},
		clickErr:   map[string]error{},
		raceWinner: 2,
		html:       testutil.LoadFixture(t, "leumi", "transactions_view.html"),
		filled:     map[string]string{},
	}
}

// respondWith queues filter responses from fixture files.
func (p *fakePage) respondWith(t *testing.T, fixtures ...string) {
	for _, name := range fixtures {
		p.responses = append(p.responses, fakeResponse{body: testutil.LoadFixtureBytes(t, "leumi", name)})
	}
}

func (p *fakePage) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.record("navigate %s", url)
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, loc browser.Locator) error {
	if p.visible[loc.Selector] {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *fakePage) Race(ctx context.Context, locs ...browser.Locator) (int, error) {
	p.record("race %d", len(locs))
	if p.raceWinner < 0 {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	return p.raceWinner, nil
}

func (p *fakePage) Click(_ context.Context, loc browser.Locator) error {
	if p.panicOn != "" && loc.Selector == p.panicOn {
		panic("element detached")
	}
	p.record("click %s", loc.Selector)
	return p.clickErr[loc.Selector]
}

func (p *fakePage) Fill(_ context.Context, loc browser.Locator, value string) error {
	p.record("fill %s", loc.Selector)
	p.mu.Lock()
	p.filled[loc.Selector] = value
	p.mu.Unlock()
	return nil
}

func (p *fakePage) Focus(_ context.Context, loc browser.Locator) error {
	p.record("focus %s", loc.Selector)
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) WaitStable(context.Context, time.Duration) error {
	return nil
}

func (p *fakePage) WaitResponse(ctx context.Context, m browser.ResponseMatch, trigger func() error) ([]byte, error) {
	p.record("arm %s %s", m.Method, m.URL)
	if err := trigger(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	var next fakeResponse
	if len(p.responses) > 0 {
		next = p.responses[0]
		p.responses = p.responses[1:]
	}
	p.mu.Unlock()

	if next.body == nil && next.err == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return next.body, next.err
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func testTimeouts() Timeouts {
	return Timeouts{
		Navigation: 200 * time.Millisecond,
		Element:    200 * time.Millisecond,
		Login:      200 * time.Millisecond,
		PopupProbe: 20 * time.Millisecond,
		PopupClose: 20 * time.Millisecond,
		Settle:     time.Millisecond,
		Response:   100 * time.Millisecond,
	}
}

var testCreds = bank.Credentials{Username: "user", Password: "secret"}

// loggedInDriver returns a driver that is already on the transactions view.
func loggedInDriver(t *testing.T, page *fakePage) *Driver {
	t.Helper()

	d := NewDriver(page, DefaultSite(), testTimeouts(), nil)
	require.NoError(t, d.Authenticate(context.Background(), testCreds))
	require.NoError(t, d.OpenTransactions(context.Background()))
	return d
}
