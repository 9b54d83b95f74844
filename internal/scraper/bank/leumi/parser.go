package leumi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

const (
	FieldHistoryItems = "HistoryTransactionsItems"
	FieldTodayItems   = "TodayTransactionsItems"

	FilterDateLayout = "02.01.06"
)

// FilterResponse is the decoded inner payload of the transactions search.
type FilterResponse struct {
	HistoryTransactionsItems []RawTransaction `json:"HistoryTransactionsItems"`
	TodayTransactionsItems   []RawTransaction `json:"TodayTransactionsItems"`
	BalanceDisplay           displayString    `json:"BalanceDisplay"`
	BalanceIncludingToday    decimal.Decimal  `json:"BalanceIncludingToday"`
	BalanceIncludingDelays   decimal.Decimal  `json:"BalanceIncludingDelays"`
	TotalCredit              decimal.Decimal  `json:"TotalCredit"`
	AsOfDateUTC              string           `json:"AsOfDateUTC"`
	TodayFlag                bool             `json:"TodayFlag"`
	RequestType              int              `json:"RequestType"`
}

// filterEnvelope is the outer object; jsonResp holds the payload as a JSON
// encoded string.
type filterEnvelope struct {
	JSONResp *string `json:"jsonResp"`
}

// displayString accepts a JSON string or number.
type displayString string

func (s *displayString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = displayString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = displayString(n.String())
	return nil
}

// --- PUBLIC API ---

// DecodeFilterResponse decodes the double-encoded search response: an
// envelope whose jsonResp field is itself a JSON document.
func DecodeFilterResponse(body []byte) (*FilterResponse, error) {
	var env filterEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", bank.ErrProtocol, err)
	}
	if env.JSONResp == nil || *env.JSONResp == "" {
		return nil, fmt.Errorf("%w: envelope has no jsonResp", bank.ErrProtocol)
	}

	inner := []byte(*env.JSONResp)

	// Both arrays must be present; an empty array is fine, a missing one
	// means the API changed shape.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return nil, fmt.Errorf("%w: decode jsonResp: %v", bank.ErrProtocol, err)
	}
	for _, name := range []string{FieldTodayItems, FieldHistoryItems} {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: jsonResp missing %s", bank.ErrProtocol, name)
		}
	}

	var resp FilterResponse
	if err := json.Unmarshal(inner, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode jsonResp: %v", bank.ErrProtocol, err)
	}

	return &resp, nil
}

// ParseAccountData turns a decoded response into one account's data. The
// status of each transaction comes from the array it was found in. A display
// balance that does not parse leaves Balance nil.
func ParseAccountData(label string, resp *FilterResponse) (*AccountData, error) {
	pending, err := extractTransactions(resp.TodayTransactionsItems, bank.StatusPending)
	if err != nil {
		return nil, err
	}
	completed, err := extractTransactions(resp.HistoryTransactionsItems, bank.StatusCompleted)
	if err != nil {
		return nil, err
	}

	balance, _ := ParseBalanceDisplay(string(resp.BalanceDisplay))

	return &AccountData{
		AccountNumber: SanitizeAccountNumber(label),
		Balance:       balance,
		Transactions:  append(pending, completed...),
		Metadata: &Metadata{
			BalanceIncludingToday:  resp.BalanceIncludingToday,
			BalanceIncludingDelays: resp.BalanceIncludingDelays,
			TotalCredit:            resp.TotalCredit,
			AsOfDate:               resp.AsOfDateUTC,
			TodayFlag:              resp.TodayFlag,
		},
	}, nil
}

// SanitizeAccountNumber turns a displayed account label into an account
// number: slashes become underscores and anything outside digits, hyphen and
// underscore is dropped.
func SanitizeAccountNumber(label string) string {
	label = strings.ReplaceAll(label, "/", "_")
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, label)
}

// ParseBalanceDisplay parses the display balance. An empty string means the
// API sent no balance and yields nil.
func ParseBalanceDisplay(s string) (*decimal.Decimal, error) {
	clean := balanceNoise.Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil, nil
	}

	// Trailing minus sign, as shown in right-to-left layouts
	if strings.HasSuffix(clean, "-") {
		clean = "-" + strings.TrimSuffix(clean, "-")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var balanceNoise = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"\u200e", "",
	"\u200f", "",
	"\u20aa", "",
	"ש\"ח", "",
)

var (
	wcfDateRe = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

	bankTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
)

// ParseBankTime parses the API's timestamps. Values without a zone are UTC.
func ParseBankTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if m := wcfDateRe.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	for _, layout := range bankTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatFilterDate renders t the way the search form expects (dd.mm.yy).
func FormatFilterDate(t time.Time) string {
	return t.Format(FilterDateLayout)
}

// ParseAccountLabels returns the account labels shown by loc, in display
// order.
func ParseAccountLabels(html string, loc browser.Locator) ([]string, error) {
	if loc.Strategy != browser.StrategyCSS {
		return nil, fmt.Errorf("%w: account label locator must be css, got %s", bank.ErrConfiguration, loc.Strategy)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bank.ErrParsingFailed, err)
	}

	var labels []string
	doc.Find(loc.Selector).Each(func(_ int, s *goquery.Selection) {
		if label := strings.TrimSpace(s.Text()); label != "" {
			labels = append(labels, label)
		}
	})

	return labels, nil
}

// DetectLoginError reports whether the page shows the invalid-credentials
// message.
func DetectLoginError(html, fragment string) bool {
	if fragment == "" {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Parse error - no login error page
		return false
	}

	found := false
	doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.Contains(s.Text(), fragment)
		return !found
	})
	return found
}

// --- PRIVATE DOMAIN LOGIC ---

func extractTransactions(items []RawTransaction, status bank.TransactionStatus) ([]Transaction, error) {
	txns := make([]Transaction, 0, len(items))

	for i, raw := range items {
		date, err := ParseBankTime(raw.DateUTC)
		if err != nil {
			return nil, fmt.Errorf("%w: %s item %d DateUTC: %v", bank.ErrProtocol, status, i, err)
		}

		var effective time.Time
		if raw.EffectiveDateUTC != "" {
			effective, err = ParseBankTime(raw.EffectiveDateUTC)
			if err != nil {
				return nil, fmt.Errorf("%w: %s item %d EffectiveDateUTC: %v", bank.ErrProtocol, status, i, err)
			}
		}

		txns = append(txns, Transaction{
			RawTransaction: raw,
			Status:         status,
			Date:           date,
			EffectiveDate:  effective,
		})
	}

	return txns, nil
}
