package leumi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

// Page is the browser surface the driver needs. *browser.Page implements it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, loc browser.Locator) error
	Race(ctx context.Context, locs ...browser.Locator) (int, error)
	Click(ctx context.Context, loc browser.Locator) error
	Fill(ctx context.Context, loc browser.Locator, value string) error
	Focus(ctx context.Context, loc browser.Locator) error
	HTML(ctx context.Context) (string, error)
	WaitStable(ctx context.Context, d time.Duration) error
	WaitResponse(ctx context.Context, m browser.ResponseMatch, trigger func() error) ([]byte, error)
}

var _ Page = (*browser.Page)(nil)

// Timeouts bound every step of a session.
type Timeouts struct {
	Navigation time.Duration
	Element    time.Duration
	// Login bounds the wait for any post-login outcome.
	Login      time.Duration
	PopupProbe time.Duration
	PopupClose time.Duration
	// Settle is how long the DOM must stay unchanged before the account
	// list is read.
	Settle   time.Duration
	Response time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation: 30 * time.Second,
		Element:    30 * time.Second,
		Login:      60 * time.Second,
		PopupProbe: 3 * time.Second,
		PopupClose: 2 * time.Second,
		Settle:     time.Second,
		Response:   60 * time.Second,
	}
}

// withDefaults fills zero durations from DefaultTimeouts.
func (t Timeouts) withDefaults() Timeouts {
	def := DefaultTimeouts()
	fill := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&t.Navigation, def.Navigation)
	fill(&t.Element, def.Element)
	fill(&t.Login, def.Login)
	fill(&t.PopupProbe, def.PopupProbe)
	fill(&t.PopupClose, def.PopupClose)
	fill(&t.Settle, def.Settle)
	fill(&t.Response, def.Response)
	return t
}

// Operation names used in errors
const (
	opLogin            = "Login"
	opOpenTransactions = "OpenTransactions"
	opListAccounts     = "ListAccounts"
	opSelectAccount    = "SelectAccount"
	opFetch            = "FetchAccountTransactions"
)

// Driver walks one web-banking session through login, the transactions view
// and one date-filtered search per account. It is not safe for concurrent
// use: the session has a single page.
type Driver struct {
	page     Page
	site     *Site
	timeouts Timeouts
	log      *zap.Logger
	state    machine
}

func NewDriver(page Page, site *Site, timeouts Timeouts, log *zap.Logger) *Driver {
	if site == nil {
		site = DefaultSite()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		page:     page,
		site:     site,
		timeouts: timeouts.withDefaults(),
		log:      log,
	}
}

func (d *Driver) State() State {
	return d.state.state
}

// Authenticate logs in and waits for the first post-login outcome. The
// invalid-credentials message is checked before the success markers on every
// poll.
func (d *Driver) Authenticate(ctx context.Context, creds bank.Credentials) error {
	if err := creds.Validate(); err != nil {
		return d.fail(opLogin, "", err)
	}
	if err := d.state.require(opLogin, StateLoggedOut); err != nil {
		return d.fail(opLogin, "", err)
	}

	d.log.Info("logging in", zap.String("url", d.site.URLs.Login))

	if err := d.step(ctx, d.timeouts.Navigation, func(ctx context.Context) error {
		return d.page.Navigate(ctx, d.site.URLs.Login)
	}); err != nil {
		return d.fail(opLogin, "", err)
	}

	fields := []struct {
		loc   browser.Locator
		value string
	}{
		{d.site.Login.Username, creds.Username},
		{d.site.Login.Password, creds.Password},
	}
	for _, f := range fields {
		if err := d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
			return d.page.Fill(ctx, f.loc, f.value)
		}); err != nil {
			return d.fail(opLogin, "", err)
		}
	}

	if err := d.click(ctx, d.site.Login.Submit); err != nil {
		return d.fail(opLogin, "", err)
	}

	var winner int
	if err := d.step(ctx, d.timeouts.Login, func(ctx context.Context) (err error) {
		winner, err = d.page.Race(ctx,
			d.site.Login.Error,
			d.site.Login.SkipToAccount,
			d.site.Login.MainContent,
		)
		return err
	}); err != nil {
		return d.fail(opLogin, "", fmt.Errorf("no post-login outcome: %w", err))
	}

	if winner == 0 {
		return d.fail(opLogin, "", bank.ErrInvalidCredentials)
	}

	// The error text can render next to the main layout
	if err := d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
		html, err := d.page.HTML(ctx)
		if err != nil {
			return err
		}
		if DetectLoginError(html, d.site.LoginErrorText) {
			return bank.ErrInvalidCredentials
		}
		return nil
	}); err != nil {
		return d.fail(opLogin, "", err)
	}

	if err := d.state.advance(StateAuthenticated); err != nil {
		return d.fail(opLogin, "", err)
	}
	d.log.Info("logged in")
	return nil
}

// OpenTransactions loads the business account transactions view.
func (d *Driver) OpenTransactions(ctx context.Context) error {
	if err := d.state.require(opOpenTransactions, StateAuthenticated, StateTransactionsView, StateSearchOpen, StateFiltered); err != nil {
		return d.fail(opOpenTransactions, "", err)
	}

	if err := d.step(ctx, d.timeouts.Navigation, func(ctx context.Context) error {
		return d.page.Navigate(ctx, d.site.URLs.Transactions)
	}); err != nil {
		return d.fail(opOpenTransactions, "", err)
	}

	if err := d.state.advance(StateTransactionsView); err != nil {
		return d.fail(opOpenTransactions, "", err)
	}
	d.log.Debug("transactions view open", zap.Stringer("state", d.state.state))
	return nil
}

// DismissInterstitial closes the promotional popup if one shows up. It never
// fails the session: a popup that cannot be closed is logged and left alone.
func (d *Driver) DismissInterstitial(ctx context.Context) {
	var pc panics.Catcher
	pc.Try(func() { d.dismissInterstitial(ctx) })
	if err := pc.Recovered().AsError(); err != nil {
		d.log.Warn("popup dismissal panicked", zap.Error(err))
	}
}

func (d *Driver) dismissInterstitial(ctx context.Context) {
	err := d.step(ctx, d.timeouts.PopupProbe, func(ctx context.Context) error {
		return d.page.WaitVisible(ctx, d.site.Popup.Marker)
	})
	if err != nil {
		d.log.Debug("no popup", zap.Stringer("locator", d.site.Popup.Marker))
		return
	}

	for _, loc := range d.site.Popup.Close {
		err := d.step(ctx, d.timeouts.PopupClose, func(ctx context.Context) error {
			return d.page.Click(ctx, loc)
		})
		if err != nil {
			d.log.Debug("popup close candidate failed", zap.Stringer("locator", loc), zap.Error(err))
			continue
		}

		d.log.Info("popup closed", zap.Stringer("locator", loc))
		_ = d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
			return d.page.WaitStable(ctx, d.timeouts.Settle)
		})
		return
	}

	d.log.Warn("popup could not be closed, continuing")
}

// ListAccounts returns the account labels of the transactions view in
// display order.
func (d *Driver) ListAccounts(ctx context.Context) ([]string, error) {
	if err := d.state.require(opListAccounts, inTransactions...); err != nil {
		return nil, d.fail(opListAccounts, "", err)
	}

	if err := d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
		return d.page.WaitVisible(ctx, d.site.Search.Advanced)
	}); err != nil {
		return nil, d.fail(opListAccounts, "", fmt.Errorf("transactions view not ready: %w", err))
	}

	// A view that keeps changing is still read; the labels are usually
	// rendered by then.
	if err := d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
		return d.page.WaitStable(ctx, d.timeouts.Settle)
	}); err != nil {
		d.log.Debug("dom did not settle", zap.Error(err))
	}

	var html string
	if err := d.step(ctx, d.timeouts.Element, func(ctx context.Context) (err error) {
		html, err = d.page.HTML(ctx)
		return err
	}); err != nil {
		return nil, d.fail(opListAccounts, "", err)
	}

	labels, err := ParseAccountLabels(html, d.site.Accounts.Label)
	if err != nil {
		return nil, d.fail(opListAccounts, "", err)
	}
	if len(labels) == 0 {
		return nil, d.fail(opListAccounts, "", bank.ErrNoAccounts)
	}

	d.log.Info("accounts found", zap.Int("count", len(labels)))
	return labels, nil
}

// SelectAccount switches the view to the account shown as label.
func (d *Driver) SelectAccount(ctx context.Context, label string) error {
	if err := d.state.require(opSelectAccount, inTransactions...); err != nil {
		return d.fail(opSelectAccount, label, err)
	}

	if err := d.click(ctx, d.site.Accounts.ComboTrigger); err != nil {
		return d.fail(opSelectAccount, label, err)
	}
	if err := d.click(ctx, d.site.AccountOption(label)); err != nil {
		return d.fail(opSelectAccount, label, err)
	}

	d.log.Debug("account selected", zap.String("account", label))
	return nil
}

// FetchAccountTransactions runs the date-filtered search for the currently
// selected account and parses the captured response.
func (d *Driver) FetchAccountTransactions(ctx context.Context, start time.Time, label string) (*AccountData, error) {
	if err := d.state.require(opFetch, inTransactions...); err != nil {
		return nil, d.fail(opFetch, label, err)
	}

	if err := d.openSearch(ctx, start); err != nil {
		return nil, d.fail(opFetch, label, err)
	}
	if err := d.state.advance(StateSearchOpen); err != nil {
		return nil, d.fail(opFetch, label, err)
	}

	var body []byte
	if err := d.step(ctx, d.timeouts.Response, func(ctx context.Context) (err error) {
		body, err = d.page.WaitResponse(ctx, d.site.FilterResponse(), func() error {
			return d.page.Click(ctx, d.site.Search.Filter)
		})
		return err
	}); err != nil {
		return nil, d.fail(opFetch, label, fmt.Errorf("filter response: %w", err))
	}
	if err := d.state.advance(StateFiltered); err != nil {
		return nil, d.fail(opFetch, label, err)
	}

	resp, err := DecodeFilterResponse(body)
	if err != nil {
		return nil, d.fail(opFetch, label, err)
	}
	acc, err := ParseAccountData(label, resp)
	if err != nil {
		return nil, d.fail(opFetch, label, err)
	}
	if acc.Balance == nil && resp.BalanceDisplay != "" {
		d.log.Warn("balance not parsed", zap.String("account", acc.AccountNumber), zap.String("display", string(resp.BalanceDisplay)))
	}

	d.log.Info("transactions fetched",
		zap.String("account", acc.AccountNumber),
		zap.Int("count", len(acc.Transactions)),
	)
	return acc, nil
}

// FetchAll lists the accounts and fetches each one in display order. By
// default the first failing account aborts the run and nothing is returned.
// With continueOnError the successful accounts are returned together with an
// *bank.AccountErrors.
func (d *Driver) FetchAll(ctx context.Context, start time.Time, continueOnError bool) ([]AccountData, error) {
	labels, err := d.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]AccountData, 0, len(labels))
	var failures []error

	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return nil, d.fail(opFetch, label, err)
		}

		acc, err := d.fetchOne(ctx, start, label, len(labels) > 1)
		if err != nil {
			if !continueOnError {
				return nil, err
			}
			d.log.Warn("account failed, continuing", zap.String("account", label), zap.Error(err))
			failures = append(failures, err)
			continue
		}
		accounts = append(accounts, *acc)
	}

	if len(failures) > 0 {
		return accounts, &bank.AccountErrors{Failures: failures}
	}
	return accounts, nil
}

func (d *Driver) fetchOne(ctx context.Context, start time.Time, label string, selectFirst bool) (*AccountData, error) {
	if selectFirst {
		if err := d.SelectAccount(ctx, label); err != nil {
			return nil, err
		}
	}
	return d.FetchAccountTransactions(ctx, start, label)
}

func (d *Driver) openSearch(ctx context.Context, start time.Time) error {
	if err := d.click(ctx, d.site.Search.Advanced); err != nil {
		return err
	}
	if err := d.click(ctx, d.site.Search.DateRangeMode); err != nil {
		return err
	}

	from := start.Format(d.site.DateLayout)
	return d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
		if err := d.page.WaitVisible(ctx, d.site.Search.FromDate); err != nil {
			return err
		}
		if err := d.page.Fill(ctx, d.site.Search.FromDate, from); err != nil {
			return err
		}
		return d.page.Focus(ctx, d.site.Search.Filter)
	})
}

func (d *Driver) click(ctx context.Context, loc browser.Locator) error {
	return d.step(ctx, d.timeouts.Element, func(ctx context.Context) error {
		return d.page.Click(ctx, loc)
	})
}

// step runs fn under its own timeout and maps an expired deadline to
// bank.ErrTimeout.
func (d *Driver) step(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, bank.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", bank.ErrTimeout, timeout, err)
	}
	return err
}

func (d *Driver) fail(op, account string, err error) error {
	return &bank.ScraperError{
		BankCode:  bank.BankLeumi,
		Operation: op,
		Phase:     d.state.state.String(),
		Account:   account,
		Cause:     err,
	}
}
