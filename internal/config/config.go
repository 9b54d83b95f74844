package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/bank/leumi"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

type Config struct {
	Debug    bool           `env:"APP_DEBUG"`
	Leumi    LeumiConfig    `env:",prefix=LEUMI_"`
	Browser  BrowserConfig  `env:",prefix=BROWSER_"`
	Timeouts TimeoutsConfig `env:",prefix=TIMEOUT_"`
}

type LeumiConfig struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	// StartDate is the first day searched, YYYY-MM-DD. Unset means one year
	// ago.
	StartDate              Date   `env:"START_DATE"`
	SiteFile               string `env:"SITE_FILE"`
	ContinueOnAccountError bool   `env:"CONTINUE_ON_ACCOUNT_ERROR"`
}

type BrowserConfig struct {
	Headless    bool   `env:"HEADLESS, default=true"`
	Bin         string `env:"BIN"`
	Stealth     bool   `env:"STEALTH, default=true"`
	UserAgent   string `env:"USER_AGENT"`
	HumanTyping bool   `env:"HUMAN_TYPING"`
	NoSandbox   bool   `env:"NO_SANDBOX, default=true"`
}

type TimeoutsConfig struct {
	Navigation time.Duration `env:"NAVIGATION, default=30s"`
	Element    time.Duration `env:"ELEMENT, default=30s"`
	Login      time.Duration `env:"LOGIN, default=60s"`
	PopupProbe time.Duration `env:"POPUP_PROBE, default=3s"`
	PopupClose time.Duration `env:"POPUP_CLOSE, default=2s"`
	Settle     time.Duration `env:"SETTLE, default=1s"`
	Response   time.Duration `env:"RESPONSE, default=60s"`
}

// Date is a calendar day in YYYY-MM-DD form.
type Date struct {
	time.Time
}

func (d *Date) EnvDecode(val string) error {
	t, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return fmt.Errorf("want YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

// Load reads .env when present, then the process environment.
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: load .env: %v", bank.ErrConfiguration, err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

func LoadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	cfg := Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return cfg, fmt.Errorf("%w: %v", bank.ErrConfiguration, err)
	}
	return cfg, nil
}

func (c Config) Credentials() bank.Credentials {
	return bank.Credentials{Username: c.Leumi.Username, Password: c.Leumi.Password}
}

func (c Config) LaunchOptions() browser.LaunchOptions {
	opts := browser.DefaultLaunchOptions()
	opts.Headless = c.Browser.Headless
	opts.Bin = c.Browser.Bin
	opts.Stealth = c.Browser.Stealth
	opts.UserAgent = c.Browser.UserAgent
	opts.NoSandbox = c.Browser.NoSandbox
	return opts
}

func (c Config) ScraperTimeouts() leumi.Timeouts {
	return leumi.Timeouts{
		Navigation: c.Timeouts.Navigation,
		Element:    c.Timeouts.Element,
		Login:      c.Timeouts.Login,
		PopupProbe: c.Timeouts.PopupProbe,
		PopupClose: c.Timeouts.PopupClose,
		Settle:     c.Timeouts.Settle,
		Response:   c.Timeouts.Response,
	}
}

// Site returns the site override file when one is configured, the embedded
// site otherwise.
func (c Config) Site() (*leumi.Site, error) {
	if c.Leumi.SiteFile == "" {
		return leumi.DefaultSite(), nil
	}
	return leumi.LoadSite(c.Leumi.SiteFile)
}

// ScraperOptions translates the configuration into scraper options.
func (c Config) ScraperOptions() ([]leumi.Option, error) {
	site, err := c.Site()
	if err != nil {
		return nil, err
	}

	opts := []leumi.Option{
		leumi.WithSite(site),
		leumi.WithTimeouts(c.ScraperTimeouts()),
		leumi.WithContinueOnAccountError(c.Leumi.ContinueOnAccountError),
	}
	if !c.Leumi.StartDate.IsZero() {
		opts = append(opts, leumi.WithStartDate(c.Leumi.StartDate.Time))
	}
	return opts, nil
}
