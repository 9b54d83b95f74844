package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

// hijackedPage opens a Chromium page whose requests go through r.
func hijackedPage(t *testing.T, r *Replayer) *rod.Page {
	t.Helper()

	if os.Getenv("SCRAPER_TEST_MODE") != "replay" {
		t.Skip("Skipping: requires SCRAPER_TEST_MODE=replay")
	}

	opts := browser.DefaultLaunchOptions()
	opts.Stealth = false

	b, err := browser.Launch(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	page, err := browser.OpenPage(b, opts)
	require.NoError(t, err)

	router := page.HijackRequests()
	router.MustAdd("*", r.Middleware())
	go router.Run()
	t.Cleanup(router.MustStop)

	return page
}

const recordedPage = "http://bank.invalid/H/Login.html"

func recordedHAR() *HAR {
	e := recorded("GET", recordedPage, `<html><body><div id="replayed">from recording</div></body></html>`, 200)
	e.Response.Content.MimeType = "text/html"
	return &HAR{Entries: []Entry{e}}
}

func liveServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="live">from network</div></body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReplayer_Middleware_ServesRecording(t *testing.T) {
	r := NewReplayer(recordedHAR())
	page := hijackedPage(t, r)

	page.MustNavigate(recordedPage).MustWaitLoad()

	assert.Equal(t, "from recording", page.MustElement("#replayed").MustText())
	assert.Equal(t, 1, r.Stats().Served)
}

func TestReplayer_Middleware_Passthrough(t *testing.T) {
	srv := liveServer(t)
	r := NewReplayer(recordedHAR(), WithPassthrough(true))
	page := hijackedPage(t, r)

	page.MustNavigate(srv.URL + "/").MustWaitLoad()

	assert.Equal(t, "from network", page.MustElement("#live").MustText())
	assert.Contains(t, r.Stats().Missed, "GET "+srv.URL+"/")
}

func TestReplayer_Middleware_MissIsNotFound(t *testing.T) {
	srv := liveServer(t)
	r := NewReplayer(recordedHAR())
	page := hijackedPage(t, r)

	page.MustNavigate(srv.URL + "/").MustWaitLoad()

	html := page.MustHTML()
	assert.Contains(t, html, "no recording found")
	assert.NotContains(t, html, "from network")
}
