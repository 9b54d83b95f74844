package leumi

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

func TestDefaultSite(t *testing.T) {
	site := DefaultSite()

	assert.NoError(t, site.Validate())
	assert.Equal(t, FilterDateLayout, site.DateLayout)
	assert.Len(t, site.Popup.Close, 4)
	assert.Equal(t, browser.StrategyXPath, site.Login.Error.Strategy)

	m := site.FilterResponse()
	assert.True(t, m.Matches(site.URLs.FilterEndpoint, "post"))
	assert.False(t, m.Matches(site.URLs.FilterEndpoint, "GET"))
	assert.False(t, m.Matches(site.URLs.FilterEndpoint+"&x=1", "POST"))
}

func TestSite_AccountOption(t *testing.T) {
	loc := DefaultSite().AccountOption("123-456/7")

	assert.Equal(t, browser.StrategyText, loc.Strategy)
	assert.Equal(t, "span", loc.Selector)
	re := regexp.MustCompile(loc.Text)
	assert.True(t, re.MatchString(" 123-456/7 "))
	assert.False(t, re.MatchString("123-456/70"))
}

func TestLoadSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, defaultSiteYAML, 0o600))

	site, err := LoadSite(path)

	require.NoError(t, err)
	assert.Equal(t, DefaultSite(), site)
}

func TestLoadSite_Errors(t *testing.T) {
	_, err := LoadSite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, bank.ErrConfiguration)

	_, err = ParseSite([]byte("urls: [not, a, map]"))
	assert.ErrorIs(t, err, bank.ErrConfiguration)
}

func TestSite_Validate(t *testing.T) {
	site := DefaultSite()
	site.URLs.FilterEndpoint = ""
	site.Search.Filter = browser.Locator{}
	site.Popup.Close = append(site.Popup.Close, browser.Locator{Strategy: "magic", Selector: "x"})

	err := site.Validate()

	require.ErrorIs(t, err, bank.ErrConfiguration)
	assert.ErrorContains(t, err, "urls.filterEndpoint")
	assert.ErrorContains(t, err, "search.filter")
	assert.ErrorContains(t, err, "popup.close[4]")
}

func TestSite_Validate_StableOrder(t *testing.T) {
	site := DefaultSite()
	site.Version = ""
	site.URLs.Login = ""
	site.DateLayout = ""
	site.Accounts.Option = ""

	first := site.Validate()
	require.Error(t, first)

	msg := first.Error()
	version := strings.Index(msg, "version is required")
	login := strings.Index(msg, "urls.login is required")
	layout := strings.Index(msg, "dateLayout is required")
	option := strings.Index(msg, "accounts.option is required")
	require.True(t, version >= 0 && login >= 0 && layout >= 0 && option >= 0, msg)
	assert.Less(t, version, login)
	assert.Less(t, login, layout)
	assert.Less(t, layout, option)

	for n := 0; n < 10; n++ {
		assert.Equal(t, msg, site.Validate().Error())
	}
}

func TestSite_Locators(t *testing.T) {
	site := DefaultSite()

	locs := site.Locators()

	assert.Len(t, locs, 17)
	assert.Equal(t, "login.username", locs[0].Name)
	assert.Equal(t, "popup.close[3]", locs[10].Name)
	assert.Equal(t, site.Search.Filter, locs[16].Locator)
}
