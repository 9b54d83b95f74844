package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Page wraps a Rod page behind context-scoped, locator-based actions. Every
// call is bounded by the context it receives.
type Page struct {
	page        *rod.Page
	humanTyping bool
	log         *zap.Logger
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithHumanTyping types with random delays between keystrokes.
func WithHumanTyping(enabled bool) PageOption {
	return func(p *Page) {
		p.humanTyping = enabled
	}
}

// WithLogger sets the logger used for action tracing.
func WithLogger(log *zap.Logger) PageOption {
	return func(p *Page) {
		p.log = log
	}
}

func NewPage(page *rod.Page, opts ...PageOption) *Page {
	p := &Page{
		page: page,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rod exposes the underlying page for callers that need raw access
// (screenshots, hijacking).
func (p *Page) Rod() *rod.Page {
	return p.page
}

// Navigate loads url and waits until the network is almost idle.
func (p *Page) Navigate(ctx context.Context, url string) error {
	rp := p.page.Context(ctx)

	wait := rp.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := rp.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	p.log.Debug("navigated", zap.String("url", url))
	return nil
}

// WaitVisible waits until the element exists and is visible.
func (p *Page) WaitVisible(ctx context.Context, loc Locator) error {
	_, err := p.visible(ctx, loc)
	return err
}

// Has reports whether the element exists right now, without waiting.
func (p *Page) Has(ctx context.Context, loc Locator) (bool, error) {
	_, err := p.find(p.page.Context(ctx).Sleeper(rod.NotFoundSleeper), loc)
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Race waits for the first of locs to appear and returns its index. The
// locators are checked in order on every poll, so earlier ones win ties.
func (p *Page) Race(ctx context.Context, locs ...Locator) (int, error) {
	if len(locs) == 0 {
		return -1, fmt.Errorf("race needs at least one locator")
	}

	winner := -1
	race := p.page.Context(ctx).Race()
	for i, loc := range locs {
		loc := loc
		race = race.ElementFunc(func(rp *rod.Page) (*rod.Element, error) {
			return p.find(rp, loc)
		}).Handle(func(*rod.Element) error {
			winner = i
			return nil
		})
	}

	if _, err := race.Do(); err != nil {
		return -1, fmt.Errorf("race %v: %w", locs, err)
	}

	p.log.Debug("race resolved", zap.Stringer("locator", locs[winner]))
	return winner, nil
}

func (p *Page) Click(ctx context.Context, loc Locator) error {
	el, err := p.visible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	p.log.Debug("clicked", zap.Stringer("locator", loc))
	return nil
}

// Fill focuses the field with a click, clears it and types value.
func (p *Page) Fill(ctx context.Context, loc Locator, value string) error {
	el, err := p.visible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus %s: %w", loc, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %s: %w", loc, err)
	}
	if err := el.Input(""); err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	if err := TypeText(el, value, p.humanTyping); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

func (p *Page) Focus(ctx context.Context, loc Locator) error {
	el, err := p.visible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focus %s: %w", loc, err)
	}
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// WaitStable waits until the DOM stops changing for d.
func (p *Page) WaitStable(ctx context.Context, d time.Duration) error {
	return p.page.Context(ctx).WaitDOMStable(d, 0)
}

func (p *Page) Close() error {
	return p.page.Close()
}

func (p *Page) visible(ctx context.Context, loc Locator) (*rod.Element, error) {
	el, err := p.find(p.page.Context(ctx), loc)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	if err := el.WaitVisible(); err != nil {
		return nil, fmt.Errorf("wait visible %s: %w", loc, err)
	}
	return el, nil
}

func (p *Page) find(rp *rod.Page, loc Locator) (*rod.Element, error) {
	switch loc.Strategy {
	case StrategyCSS:
		return rp.Element(loc.Selector)
	case StrategyXPath:
		return rp.ElementX(loc.Selector)
	case StrategyText:
		return rp.ElementR(loc.Selector, loc.Text)
	default:
		return nil, fmt.Errorf("unknown locator strategy %q", loc.Strategy)
	}
}
