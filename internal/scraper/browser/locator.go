// Package browser provides utilities for browser automation with Rod.
package browser

import (
	"fmt"
	"regexp"
)

// Strategy selects how a Locator finds its element.
type Strategy string

const (
	StrategyCSS   Strategy = "css"
	StrategyXPath Strategy = "xpath"
	// StrategyText matches a CSS selector whose text also matches a JS regex.
	StrategyText Strategy = "text"
)

// Locator addresses one element on the page.
type Locator struct {
	Strategy Strategy `yaml:"strategy"`
	Selector string   `yaml:"selector"`
	Text     string   `yaml:"text,omitempty"`
}

func CSS(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Selector: selector}
}

func XPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Selector: expr}
}

// ExactText matches elements of the given CSS selector whose trimmed text
// equals text.
func ExactText(selector, text string) Locator {
	return Locator{
		Strategy: StrategyText,
		Selector: selector,
		Text:     `^\s*` + regexp.QuoteMeta(text) + `\s*$`,
	}
}

// Validate checks that the locator can be resolved.
func (l Locator) Validate() error {
	if l.Selector == "" {
		return fmt.Errorf("locator has empty selector")
	}
	switch l.Strategy {
	case StrategyCSS, StrategyXPath:
		return nil
	case StrategyText:
		if l.Text == "" {
			return fmt.Errorf("text locator %q has empty text", l.Selector)
		}
		return nil
	default:
		return fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
}

func (l Locator) String() string {
	if l.Strategy == StrategyText {
		return fmt.Sprintf("%s:%s /%s/", l.Strategy, l.Selector, l.Text)
	}
	return fmt.Sprintf("%s:%s", l.Strategy, l.Selector)
}
