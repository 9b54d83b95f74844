package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// LaunchOptions configures the Chromium instance and its first page.
type LaunchOptions struct {
	Headless  bool
	Bin       string // empty lets Rod download or locate a browser
	Stealth   bool
	UserAgent string
	Width     int
	Height    int
	NoSandbox bool
}

func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Headless:  true,
		Stealth:   true,
		Width:     1280,
		Height:    720,
		NoSandbox: true,
	}
}

// Launch starts a browser and connects to it. The caller owns the browser
// and must close it.
func Launch(opts LaunchOptions) (*rod.Browser, error) {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox).
		// Hide the "controlled by automation" markers
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))

	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	return browser, nil
}

// OpenPage creates a new tab configured by opts.
func OpenPage(browser *rod.Browser, opts LaunchOptions) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if opts.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	if opts.Width > 0 && opts.Height > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  opts.Width,
			Height: opts.Height,
		})
		if err != nil {
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	return page, nil
}
