package leumi

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

//go:embed site.yaml
var defaultSiteYAML []byte

// Site is the addressable surface of the bank's web front end: every URL and
// element locator the driver touches. Swapping it adapts the driver to a
// changed site without code changes.
type Site struct {
	Version        string      `yaml:"version"`
	URLs           SiteURLs    `yaml:"urls"`
	DateLayout     string      `yaml:"dateLayout"`
	LoginErrorText string      `yaml:"loginErrorText"`
	Login          LoginSite   `yaml:"login"`
	Popup          PopupSite   `yaml:"popup"`
	Accounts       AccountSite `yaml:"accounts"`
	Search         SearchSite  `yaml:"search"`
}

type SiteURLs struct {
	Login          string `yaml:"login"`
	Transactions   string `yaml:"transactions"`
	FilterEndpoint string `yaml:"filterEndpoint"`
	FilterMethod   string `yaml:"filterMethod"`
}

type LoginSite struct {
	Username      browser.Locator `yaml:"username"`
	Password      browser.Locator `yaml:"password"`
	Submit        browser.Locator `yaml:"submit"`
	SkipToAccount browser.Locator `yaml:"skipToAccount"`
	MainContent   browser.Locator `yaml:"mainContent"`
	Error         browser.Locator `yaml:"error"`
}

// PopupSite describes the optional interstitial. Close locators are tried in
// order until one click succeeds.
type PopupSite struct {
	Marker browser.Locator   `yaml:"marker"`
	Close  []browser.Locator `yaml:"close"`
}

type AccountSite struct {
	Label        browser.Locator `yaml:"label"`
	ComboTrigger browser.Locator `yaml:"comboTrigger"`
	// Option is the CSS selector of an entry in the opened account combo;
	// the entry is matched by its exact text.
	Option string `yaml:"option"`
}

type SearchSite struct {
	Advanced      browser.Locator `yaml:"advanced"`
	DateRangeMode browser.Locator `yaml:"dateRangeMode"`
	FromDate      browser.Locator `yaml:"fromDate"`
	Filter        browser.Locator `yaml:"filter"`
}

// DefaultSite returns the embedded site description.
func DefaultSite() *Site {
	site, err := ParseSite(defaultSiteYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded site.yaml is invalid: %v", err))
	}
	return site
}

// LoadSite reads a site description from path.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read site file: %v", bank.ErrConfiguration, err)
	}
	return ParseSite(data)
}

func ParseSite(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("%w: parse site: %v", bank.ErrConfiguration, err)
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

// AccountOption locates the combo entry showing label.
func (s *Site) AccountOption(label string) browser.Locator {
	return browser.ExactText(s.Accounts.Option, label)
}

// FilterResponse is the network request whose response carries the
// transactions.
func (s *Site) FilterResponse() browser.ResponseMatch {
	return browser.ResponseMatch{URL: s.URLs.FilterEndpoint, Method: s.URLs.FilterMethod}
}

// NamedLocator is a locator with its path in the site file.
type NamedLocator struct {
	Name    string
	Locator browser.Locator
}

// Locators lists every fixed locator of the site in file order.
func (s *Site) Locators() []NamedLocator {
	locs := []NamedLocator{
		{"login.username", s.Login.Username},
		{"login.password", s.Login.Password},
		{"login.submit", s.Login.Submit},
		{"login.skipToAccount", s.Login.SkipToAccount},
		{"login.mainContent", s.Login.MainContent},
		{"login.error", s.Login.Error},
		{"popup.marker", s.Popup.Marker},
	}
	for i, loc := range s.Popup.Close {
		locs = append(locs, NamedLocator{fmt.Sprintf("popup.close[%d]", i), loc})
	}
	return append(locs,
		NamedLocator{"accounts.label", s.Accounts.Label},
		NamedLocator{"accounts.comboTrigger", s.Accounts.ComboTrigger},
		NamedLocator{"search.advanced", s.Search.Advanced},
		NamedLocator{"search.dateRangeMode", s.Search.DateRangeMode},
		NamedLocator{"search.fromDate", s.Search.FromDate},
		NamedLocator{"search.filter", s.Search.Filter},
	)
}

func (s *Site) Validate() error {
	var errs []error

	required := []struct {
		name, value string
	}{
		{"version", s.Version},
		{"urls.login", s.URLs.Login},
		{"urls.transactions", s.URLs.Transactions},
		{"urls.filterEndpoint", s.URLs.FilterEndpoint},
		{"urls.filterMethod", s.URLs.FilterMethod},
		{"dateLayout", s.DateLayout},
		{"loginErrorText", s.LoginErrorText},
		{"accounts.option", s.Accounts.Option},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}

	if len(s.Popup.Close) == 0 {
		errs = append(errs, errors.New("popup.close needs at least one locator"))
	}
	for _, nl := range s.Locators() {
		if err := nl.Locator.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", nl.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: invalid site: %w", bank.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}
