// Package leumi scrapes business account transactions from Bank Leumi's web
// banking by driving a logged-in browser page and capturing the search API's
// response.
package leumi

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
)

// Options configure a Scraper.
type Options struct {
	// StartDate is the first day searched. Zero means one year before now.
	StartDate time.Time
	Site      *Site
	Timeouts  Timeouts
	Logger    *zap.Logger
	// ContinueOnAccountError keeps fetching after an account fails and
	// returns the accounts that succeeded alongside the failures.
	ContinueOnAccountError bool
	Clock                  func() time.Time
}

type Option func(*Options)

func WithStartDate(t time.Time) Option {
	return func(o *Options) {
		o.StartDate = t
	}
}

func WithSite(site *Site) Option {
	return func(o *Options) {
		o.Site = site
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(o *Options) {
		o.Timeouts = t
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

func WithContinueOnAccountError(enabled bool) Option {
	return func(o *Options) {
		o.ContinueOnAccountError = enabled
	}
}

// WithClock replaces time.Now when computing the default start date.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}

// Scraper is a logged-in Leumi session over one browser page.
type Scraper struct {
	page   Page
	driver *Driver
	opts   Options

	releaseOnce sync.Once
	releaseErr  error
}

var _ bank.BankScraper = (*Scraper)(nil)

// New prepares a scraper over page without touching the browser. Most
// callers want Open.
func New(page Page, opts ...Option) *Scraper {
	o := Options{
		Site:     DefaultSite(),
		Timeouts: DefaultTimeouts(),
		Logger:   zap.NewNop(),
		Clock:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.Logger.With(zap.String("bank", string(bank.BankLeumi)))
	return &Scraper{
		page:   page,
		driver: NewDriver(page, o.Site, o.Timeouts, log),
		opts:   o,
	}
}

// Open logs in on page, opens the transactions view and dismisses the
// promotional popup if one shows. On failure the page is left to the caller.
func Open(ctx context.Context, page Page, creds bank.Credentials, opts ...Option) (*Scraper, error) {
	s := New(page, opts...)
	if err := s.Login(ctx, creds); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scraper) Login(ctx context.Context, creds bank.Credentials) error {
	if err := s.driver.Authenticate(ctx, creds); err != nil {
		return err
	}
	if err := s.driver.OpenTransactions(ctx); err != nil {
		return err
	}
	s.driver.DismissInterstitial(ctx)
	return nil
}

// FetchTransactions runs a fresh search for every account. Nothing is
// cached between calls.
func (s *Scraper) FetchTransactions(ctx context.Context) ([]AccountData, error) {
	return s.driver.FetchAll(ctx, s.startDate(), s.opts.ContinueOnAccountError)
}

// FetchAccounts returns every account in the cross-bank shape. With
// ContinueOnAccountError, partial results come back with the error.
func (s *Scraper) FetchAccounts(ctx context.Context) ([]bank.AccountData, error) {
	accounts, err := s.FetchTransactions(ctx)
	if accounts == nil {
		return nil, err
	}
	return NormalizeAll(accounts), err
}

// FetchNormalized is FetchAccounts under the name used by the CLI.
func (s *Scraper) FetchNormalized(ctx context.Context) ([]bank.AccountData, error) {
	return s.FetchAccounts(ctx)
}

// Release closes the page when it can be closed. Further calls return the
// first result.
func (s *Scraper) Release() error {
	s.releaseOnce.Do(func() {
		if c, ok := s.page.(io.Closer); ok {
			s.releaseErr = c.Close()
		}
	})
	return s.releaseErr
}

func (s *Scraper) State() State {
	return s.driver.State()
}

func (s *Scraper) startDate() time.Time {
	if !s.opts.StartDate.IsZero() {
		return s.opts.StartDate
	}
	return s.opts.Clock().AddDate(-1, 0, 0)
}
