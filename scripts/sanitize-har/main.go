// sanitize-har redacts credentials and personal data from a recorded HAR
// before it is committed as a replay recording.
//
// Usage:
//
//	go run ./scripts/sanitize-har -scenario=session
//	go run ./scripts/sanitize-har -input=recording.har -output=sanitized.har.json
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acounter/leumi-scraper/internal/scraper/testutil"
)

func main() {
	scenario := flag.String("scenario", "", "Recording name under the leumi testdata/recordings directory")
	inputPath := flag.String("input", "", "Input HAR file path")
	outputPath := flag.String("output", "", "Output HAR file path (defaults to input path)")
	dryRun := flag.Bool("dry-run", false, "Show what would be redacted without modifying")
	flag.Parse()

	var inPath, outPath string
	switch {
	case *scenario != "":
		inPath = filepath.Join("internal", "scraper", "bank", "leumi", "testdata", "recordings", *scenario+".har.json")
		outPath = inPath
	case *inputPath != "":
		inPath = *inputPath
		outPath = *inputPath
		if *outputPath != "" {
			outPath = *outputPath
		}
	default:
		printUsage()
		os.Exit(1)
	}

	fmt.Printf("Loading HAR file: %s\n", inPath)

	har, err := testutil.LoadHAR(inPath)
	if err != nil {
		fmt.Printf("Error loading HAR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d entries\n", len(har.Entries))

	sanitized := testutil.DefaultSanitizer().SanitizeHAR(har)

	changes := diff(har, sanitized)
	fmt.Printf("Changed %d values\n", countChanges(changes))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes written.")
		printSummary(har, changes)
		return
	}

	if err := testutil.SaveHAR(outPath, sanitized); err != nil {
		fmt.Printf("Error saving HAR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sanitized HAR saved to: %s\n", outPath)
	fmt.Println("\nReview the diff, then commit.")
}

func printUsage() {
	fmt.Println("sanitize-har - Remove sensitive data from HAR files before committing")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  go run ./scripts/sanitize-har -scenario=session")
	fmt.Println("  go run ./scripts/sanitize-har -input=recording.har")
	fmt.Println("  go run ./scripts/sanitize-har -input=in.har -output=out.har.json")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -scenario  Recording name (session, login_error, ...)")
	fmt.Println("  -input     Input HAR file path")
	fmt.Println("  -output    Output HAR file path (defaults to input)")
	fmt.Println("  -dry-run   Show redactions without modifying file")
}

// diff lists what changed per entry index.
func diff(original, sanitized *testutil.HAR) map[int][]string {
	changes := make(map[int][]string)
	for i := range original.Entries {
		if i >= len(sanitized.Entries) {
			break
		}
		orig := original.Entries[i]
		san := sanitized.Entries[i]

		if orig.Request.URL != san.Request.URL {
			changes[i] = append(changes[i], "URL query parameters")
		}
		for j, h := range orig.Request.Headers {
			if j < len(san.Request.Headers) && h.Value != san.Request.Headers[j].Value {
				changes[i] = append(changes[i], fmt.Sprintf("request header %q", h.Name))
			}
		}
		if orig.Request.Body() != san.Request.Body() {
			changes[i] = append(changes[i], "request body")
		}
		for j, h := range orig.Response.Headers {
			if j < len(san.Response.Headers) && h.Value != san.Response.Headers[j].Value {
				changes[i] = append(changes[i], fmt.Sprintf("response header %q", h.Name))
			}
		}
		if orig.Response.Content.Text != san.Response.Content.Text {
			changes[i] = append(changes[i], "response body")
		}
	}
	return changes
}

func countChanges(changes map[int][]string) int {
	n := 0
	for _, c := range changes {
		n += len(c)
	}
	return n
}

func printSummary(original *testutil.HAR, changes map[int][]string) {
	fmt.Println("\nRedaction Summary:")
	fmt.Println("==================")

	for i, e := range original.Entries {
		c, ok := changes[i]
		if !ok {
			continue
		}
		fmt.Printf("\nEntry %d: %s %s\n", i+1, e.Request.Method, truncateURL(e.Request.URL))
		for _, what := range c {
			fmt.Printf("  - %s redacted\n", what)
		}
	}
}

func truncateURL(url string) string {
	if len(url) > 80 {
		return url[:77] + "..."
	}
	return url
}
