// capture-response logs in with the real driver, runs the transactions
// search for every account and saves what the scraper saw as fixtures: the
// filter response bodies, the transactions view HTML and a screenshot.
// Everything is sanitized before it is written.
//
// Usage:
//
//	LEUMI_USERNAME=... LEUMI_PASSWORD=... go run ./scripts/capture-response
//	go run ./scripts/capture-response -output=/tmp/fixtures -raw
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/acounter/leumi-scraper/internal/config"
	"github.com/acounter/leumi-scraper/internal/logger"
	"github.com/acounter/leumi-scraper/internal/scraper/bank/leumi"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
	"github.com/acounter/leumi-scraper/internal/scraper/testutil"
)

// recordingPage keeps a copy of every captured response body.
type recordingPage struct {
	*browser.Page

	mu     sync.Mutex
	bodies [][]byte
}

func (p *recordingPage) WaitResponse(ctx context.Context, m browser.ResponseMatch, trigger func() error) ([]byte, error) {
	body, err := p.Page.WaitResponse(ctx, m, trigger)
	if err == nil {
		p.mu.Lock()
		p.bodies = append(p.bodies, body)
		p.mu.Unlock()
	}
	return body, err
}

func main() {
	outputDir := flag.String("output", filepath.Join("internal", "scraper", "bank", "leumi", "testdata", "fixtures"), "Output directory")
	raw := flag.Bool("raw", false, "Write bodies without sanitizing (never commit these)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(true)
	defer func() { _ = log.Sync() }()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║           LEUMI RESPONSE CAPTURE TOOL                          ║")
	fmt.Println("╠════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Output: %-52s  ║\n", *outputDir)
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	launchOpts := cfg.LaunchOptions()
	launchOpts.Headless = false

	b, err := browser.Launch(launchOpts)
	if err != nil {
		fmt.Printf("Error launching browser: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = b.Close() }()

	rp, err := browser.OpenPage(b, launchOpts)
	if err != nil {
		fmt.Printf("Error opening page: %v\n", err)
		os.Exit(1)
	}
	page := &recordingPage{Page: browser.NewPage(rp, browser.WithLogger(log))}

	opts, err := cfg.ScraperOptions()
	if err != nil {
		fmt.Printf("Error loading site: %v\n", err)
		os.Exit(1)
	}
	opts = append(opts, leumi.WithLogger(log), leumi.WithContinueOnAccountError(true))

	scraper, err := leumi.Open(ctx, page, cfg.Credentials(), opts...)
	if err != nil {
		fmt.Printf("❌ Login failed: %v\n", err)
		saveScreenshot(page.Rod(), filepath.Join(*outputDir, "login_failure.png"))
		os.Exit(1)
	}

	// Transactions view before any search
	saveHTML(page.Rod(), filepath.Join(*outputDir, "transactions_view.html"), *raw)
	saveScreenshot(page.Rod(), filepath.Join(*outputDir, "transactions_view.png"))

	accounts, err := scraper.FetchTransactions(ctx)
	if err != nil {
		fmt.Printf("⚠️  Fetch finished with errors: %v\n", err)
	}
	for _, acc := range accounts {
		fmt.Printf("   %s: %d transactions\n", acc.AccountNumber, len(acc.Transactions))
	}

	sanitizer := testutil.DefaultSanitizer()
	for i, body := range page.bodies {
		name := "filter_response.json"
		if i > 0 {
			name = fmt.Sprintf("filter_response_%d.json", i+1)
		}
		out := string(body)
		if !*raw {
			out = sanitizer.Body(out)
		}
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			fmt.Printf("   ❌ Error saving %s: %v\n", path, err)
			continue
		}
		fmt.Printf("   ✅ Saved: %s\n", path)
	}

	saveMetadata(*outputDir, len(page.bodies))
	log.Info("capture complete", zap.Int("count", len(page.bodies)))

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("⚠️  IMPORTANT: Review the files before committing!")
	fmt.Println("   Run: go run ./scripts/sanitize-fixtures -dry-run")
	fmt.Println("════════════════════════════════════════════════════════════════")
}

func saveHTML(page interface{ HTML() (string, error) }, path string, raw bool) {
	html, err := page.HTML()
	if err != nil {
		fmt.Printf("   ❌ Error capturing HTML: %v\n", err)
		return
	}
	if !raw {
		html = testutil.DefaultSanitizer().Text(html)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		fmt.Printf("   ❌ Error saving HTML: %v\n", err)
		return
	}
	fmt.Printf("   ✅ Saved: %s\n", path)
}

func saveScreenshot(page interface {
	Screenshot(fullPage bool, req *proto.PageCaptureScreenshot) ([]byte, error)
}, path string) {
	buf, err := page.Screenshot(false, nil)
	if err != nil {
		fmt.Printf("   ⚠️  Screenshot failed: %v\n", err)
		return
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		fmt.Printf("   ⚠️  Error saving screenshot: %v\n", err)
		return
	}
	fmt.Printf("   📸 Screenshot: %s\n", path)
}

func saveMetadata(outDir string, responses int) {
	metadata := fmt.Sprintf(`# Fixture Metadata
bank: leumi
captured_at: %s
captured_by: %s
filter_responses: %d

## Files
- filter_response*.json: bodies of the transactions search POST, one per account
- transactions_view.html: the transactions view before the first search
- *.png: screenshots for visual reference

## Notes
- Bodies are double-encoded: the jsonResp field holds a JSON document as a string
- Sanitized with internal/scraper/testutil.DefaultSanitizer unless -raw was given
- Re-run capture if parser tests start failing after a site change
`, time.Now().Format(time.RFC3339), os.Getenv("USER"), responses)

	_ = os.WriteFile(filepath.Join(outDir, "README.md"), []byte(metadata), 0o644)
}
