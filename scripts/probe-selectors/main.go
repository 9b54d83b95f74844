// probe-selectors checks every locator of the site file against the live
// bank pages, frame by frame. Run it when the scraper starts timing out to
// see which locator stopped matching.
//
// Usage:
//
//	go run ./scripts/probe-selectors
//	go run ./scripts/probe-selectors -site=internal/scraper/bank/leumi/site.yaml
//
// The script opens a visible browser and prompts you to navigate to each
// page manually. After you press ENTER, it probes the frame tree and prints
// a report.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/acounter/leumi-scraper/internal/scraper/bank/leumi"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

type pageToInspect struct {
	Name         string
	Instructions string
}

var pages = []pageToInspect{
	{"Login page", "Open the login page (don't log in yet)"},
	{"Login error", "Submit INVALID credentials and wait for the error"},
	{"Landing page", "Log in with valid credentials and wait for the landing page"},
	{"Popup", "If a promotional popup shows, leave it open (or skip)"},
	{"Transactions view", "Open the business account transactions view"},
	{"Account combo", "Open the account combo box"},
	{"Advanced search", "Open the advanced search panel and pick the date range option"},
}

const probeTimeout = 500 * time.Millisecond

func main() {
	sitePath := flag.String("site", "", "Site file to probe (default: embedded site.yaml)")
	bin := flag.String("bin", "", "Chrome binary (default: let Rod locate one)")
	flag.Parse()

	site := leumi.DefaultSite()
	if *sitePath != "" {
		var err error
		if site, err = leumi.LoadSite(*sitePath); err != nil {
			fmt.Printf("Error loading site: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("================================================================")
	fmt.Printf("  SELECTOR PROBE: site %s\n", site.Version)
	fmt.Println("================================================================")
	fmt.Println()

	opts := browser.DefaultLaunchOptions()
	opts.Headless = false
	opts.Bin = *bin
	opts.Width, opts.Height = 1920, 1080

	b, err := browser.Launch(opts)
	if err != nil {
		fmt.Printf("Error launching browser: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = b.Close() }()

	page, err := browser.OpenPage(b, opts)
	if err != nil {
		fmt.Printf("Error opening page: %v\n", err)
		os.Exit(1)
	}
	if err := page.Navigate(site.URLs.Login); err != nil {
		fmt.Printf("Error opening login page: %v\n", err)
	}

	reader := bufio.NewReader(os.Stdin)
	seen := make(map[string]bool)

	for _, pg := range pages {
		fmt.Println("----------------------------------------------------------------")
		fmt.Printf("PAGE: %s\n", pg.Name)
		fmt.Printf("  -> %s\n", pg.Instructions)
		fmt.Print("  Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "quit" {
			break
		}
		if input == "skip" {
			fmt.Printf("  Skipped.\n\n")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := browser.WaitFrames(ctx, page, 500*time.Millisecond); err != nil {
			fmt.Printf("  (frames still changing: %v)\n", err)
		}
		cancel()

		fmt.Printf("\n  URL: %s\n\n", page.MustInfo().URL)

		browser.WalkFrames(page, func(frame *rod.Page, path string, depth int) {
			probeFrame(frame, path, depth, site, seen)
		})
		fmt.Println()
	}

	fmt.Println("================================================================")
	fmt.Println("  Never matched:")
	for _, nl := range site.Locators() {
		if !seen[nl.Name] {
			fmt.Printf("    %-24s %s\n", nl.Name, nl.Locator)
		}
	}
	fmt.Println("================================================================")
}

func probeFrame(frame *rod.Page, path string, depth int, site *leumi.Site, seen map[string]bool) {
	indent := strings.Repeat("  ", depth+1)
	fmt.Printf("%sFRAME %s\n", indent, path)

	p := browser.NewPage(frame)
	found := 0
	for _, nl := range site.Locators() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		ok, err := p.Has(ctx, nl.Locator)
		visible := ok && p.WaitVisible(ctx, nl.Locator) == nil
		cancel()

		if err != nil || !ok {
			continue
		}
		seen[nl.Name] = true
		found++
		fmt.Printf("%s  FOUND  %-24s %s  (visible=%v)\n", indent, nl.Name, nl.Locator, visible)
	}
	if found == 0 {
		fmt.Printf("%s  (no site locators found)\n", indent)
	}

	if html, err := frame.HTML(); err == nil {
		if labels, err := leumi.ParseAccountLabels(html, site.Accounts.Label); err == nil && len(labels) > 0 {
			fmt.Printf("%s  ACCOUNTS %s\n", indent, strings.Join(labels, ", "))
		}
	}
}
