// sanitize-fixtures redacts account numbers, IDs and tokens from the HTML
// and JSON fixtures under the leumi testdata directory.
//
// Usage:
//
//	go run ./scripts/sanitize-fixtures -dry-run
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/acounter/leumi-scraper/internal/scraper/testutil"
)

func main() {
	dir := flag.String("dir", filepath.Join("internal", "scraper", "bank", "leumi", "testdata", "fixtures"), "Fixtures directory")
	dryRun := flag.Bool("dry-run", false, "Show what would be changed without modifying files")
	flag.Parse()

	var files []string
	for _, pattern := range []string{"*.html", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(*dir, pattern))
		if err != nil {
			fmt.Printf("Bad pattern %s: %v\n", pattern, err)
			os.Exit(1)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		fmt.Printf("No fixtures found in %s\n", *dir)
		os.Exit(1)
	}
	sort.Strings(files)

	fmt.Printf("🔒 Sanitizing fixtures in %s\n", *dir)
	if *dryRun {
		fmt.Println("    (DRY RUN - no files will be modified)")
	}
	fmt.Println()

	s := testutil.DefaultSanitizer()
	for _, file := range files {
		sanitizeFile(s, file, *dryRun)
	}

	fmt.Println()
	fmt.Println("✅ Sanitization complete!")
	if *dryRun {
		fmt.Println("    Run without -dry-run to apply changes")
	}
}

func sanitizeFile(s *testutil.Sanitizer, path string, dryRun bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ Error reading %s: %v\n", path, err)
		return
	}

	original := string(content)
	var sanitized string
	if strings.HasSuffix(path, ".json") {
		// Compare against a plain re-encode so formatting alone is not a change.
		original = testutil.NewSanitizer(nil, nil).Body(original)
		sanitized = s.Body(original)
	} else {
		sanitized = s.Text(original)
	}

	filename := filepath.Base(path)
	if sanitized == original {
		fmt.Printf("📄 %s: No sensitive data found\n", filename)
		return
	}

	fmt.Printf("📄 %s: Found sensitive data\n", filename)
	found := s.Scan(original)
	descriptions := make([]string, 0, len(found))
	for d := range found {
		descriptions = append(descriptions, d)
	}
	sort.Strings(descriptions)
	for _, d := range descriptions {
		fmt.Printf("  - %s: %d matched\n", d, found[d])
	}
	if len(found) == 0 {
		fmt.Println("  - sensitive JSON fields")
	}

	if dryRun {
		return
	}
	if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
		fmt.Printf("    ❌ Error writing %s: %v\n", path, err)
		return
	}
	fmt.Println("    ✅ Sanitized and saved")
}
