package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/k3a/html2text"
)

// ConfidenceBoost is added to a detection's confidence when a reference page
// corroborates the identification. The service clamps the final value.
const ConfidenceBoost = 0.10

// referenceSite scopes search queries to one pharmaceutical reference.
const referenceSite = "drugs.com"

// Match holds the fields extracted from a drug reference page. Empty fields
// were not found and must not override the model's answer.
type Match struct {
	GenericName string
	BrandName   string
	DrugClass   string
	Usage       string
	Warnings    []string
}

// Enricher looks up corroborating reference data for an identified pill.
// Lookup is best-effort: it reports found=false on any failure and never
// returns an error.
type Enricher interface {
	Lookup(name string) (*Match, bool)
}

// SearchEnricher implements Enricher against a web-search JSON API, scraping
// the first hit on the reference site.
type SearchEnricher struct {
	apiKey    string
	searchURL string
	client    *http.Client
}

// NewSearchEnricher creates a SearchEnricher. An empty API key disables
// lookups entirely; every call reports not found.
func NewSearchEnricher(apiKey string) *SearchEnricher {
	return NewSearchEnricherWithClient(apiKey, "https://google.serper.dev/search", &http.Client{
		Timeout: 15 * time.Second,
	})
}

// NewSearchEnricherWithClient creates a SearchEnricher with a custom search
// endpoint and HTTP client for testing.
func NewSearchEnricherWithClient(apiKey, searchURL string, client *http.Client) *SearchEnricher {
	return &SearchEnricher{
		apiKey:    apiKey,
		searchURL: searchURL,
		client:    client,
	}
}

// searchResponse represents the subset of the search API reply we consume
type searchResponse struct {
	Organic []struct {
		Link string `json:"link"`
	} `json:"organic"`
}

// Reference pages follow a stable "Label: value" layout once flattened to text.
var (
	genericRe = regexp.MustCompile(`(?i)generic name:\s*([^\n(]+)`)
	brandRe   = regexp.MustCompile(`(?i)brand names?:\s*([^\n]+)`)
	classRe   = regexp.MustCompile(`(?i)drug class(?:es)?:\s*([^\n]+)`)
	usageRe   = regexp.MustCompile(`(?i)([A-Z][^.\n]{10,200}\bused (?:to|for)\b[^.\n]{3,200}\.)`)
	warningRe = regexp.MustCompile(`(?i)\bwarnings?\b\s*\n+((?:[^\n]+\n?){1,4})`)
)

// Lookup searches the reference site for the pill name and extracts
// corroborating fields from the first hit.
func (e *SearchEnricher) Lookup(name string) (*Match, bool) {
	if e.apiKey == "" || strings.TrimSpace(name) == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	link, ok := e.search(ctx, name)
	if !ok {
		return nil, false
	}

	page, ok := e.fetch(ctx, link)
	if !ok {
		return nil, false
	}

	match := extractMatch(html2text.HTML2Text(page))
	if match == nil {
		return nil, false
	}
	return match, true
}

// search queries the search API scoped to the reference site and returns the
// first organic hit.
func (e *SearchEnricher) search(ctx context.Context, name string) (string, bool) {
	query := fmt.Sprintf("site:%s %s", referenceSite, name)
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.searchURL, bytes.NewBuffer(body))
	if err != nil {
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		slog.Warn("Reference search failed", "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Reference search returned non-OK status", "status", resp.StatusCode)
		return "", false
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", false
	}
	if len(searchResp.Organic) == 0 || searchResp.Organic[0].Link == "" {
		return "", false
	}
	return searchResp.Organic[0].Link, true
}

// fetch downloads the reference page body.
func (e *SearchEnricher) fetch(ctx context.Context, link string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, "GET", link, http.NoBody)
	if err != nil {
		return "", false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		slog.Warn("Reference page fetch failed", "url", link, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	// Reference pages are large; cap the read
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", false
	}
	return string(body), true
}

// extractMatch pulls labeled fields out of the flattened page text. Returns
// nil when nothing usable was found.
func extractMatch(text string) *Match {
	match := &Match{}
	found := false

	if m := genericRe.FindStringSubmatch(text); m != nil {
		match.GenericName = strings.TrimSpace(m[1])
		found = true
	}
	if m := brandRe.FindStringSubmatch(text); m != nil {
		match.BrandName = strings.TrimSpace(m[1])
		found = true
	}
	if m := classRe.FindStringSubmatch(text); m != nil {
		match.DrugClass = strings.TrimSpace(m[1])
		found = true
	}
	if m := usageRe.FindStringSubmatch(text); m != nil {
		match.Usage = strings.TrimSpace(m[1])
		found = true
	}
	if m := warningRe.FindStringSubmatch(text); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				match.Warnings = append(match.Warnings, line)
			}
		}
		if len(match.Warnings) > 0 {
			found = true
		}
	}

	if !found {
		return nil
	}
	return match
}
