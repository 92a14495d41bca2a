package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

const (
	maxPageBytes     = 2 << 20
	maxPageTextRunes = 12_000
	userAgent        = "diligence-site-analyst/1.0"
)

const analystSystem = `You profile a venture investor from the text of their website.
Respond ONLY with JSON of the form:
{"key_personnel": ["Name, Title"], "investment_thesis": "...", "recent_investments": ["Company"], "public_links": ["https://..."]}
Use only facts present in the page. Leave lists empty when the page does not say.`

// socialHosts are link targets worth surfacing as public profiles
var socialHosts = []string{"linkedin.com", "twitter.com", "x.com", "crunchbase.com", "github.com", "medium.com", "substack.com"}

// pageExtract is what the analyst pulls out of an investor page with goquery
type pageExtract struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Headings    []string `json:"headings"`
	People      []string `json:"people"`
	Links       []string `json:"links"`
	Text        string   `json:"text"`
}

// SiteAnalyst fetches the confirmed investor URL, extracts structure with
// goquery, and, when a generator is configured, asks the model for a profile.
// Without a generator the profile is built from the extraction alone.
type SiteAnalyst struct {
	client *http.Client
	gen    Generator // optional
	logger *slog.Logger
}

// NewSiteAnalyst creates a SiteAnalyst. gen may be nil. A nil client gets
// NewSiteClient, which refuses non-public addresses.
func NewSiteAnalyst(client *http.Client, gen Generator, logger *slog.Logger) *SiteAnalyst {
	if client == nil {
		client = NewSiteClient(30 * time.Second)
	}
	return &SiteAnalyst{client: client, gen: gen, logger: logger}
}

var _ svc.SiteAnalyst = (*SiteAnalyst)(nil)

// Analyze builds a SiteProfile for siteURL
func (a *SiteAnalyst) Analyze(ctx context.Context, siteURL string) (*models.SiteProfile, error) {
	page, err := a.fetch(ctx, siteURL)
	if err != nil {
		return nil, err
	}

	if a.gen == nil {
		return profileFromExtract(page), nil
	}

	input, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode page extract: %w", err)
	}
	resp, err := a.gen.Generate(ctx, analystSystem, fmt.Sprintf("URL: %s\n\n[PAGE]\n%s", siteURL, input))
	if err != nil {
		return nil, err
	}

	var profile models.SiteProfile
	if err := decodeCompletion(resp, &profile); err != nil {
		return nil, fmt.Errorf("site analyst: %w", err)
	}
	// Links seen on the page are facts; keep them even if the model dropped them
	profile.PublicLinks = mergeUnique(profile.PublicLinks, page.Links)

	a.logger.Debug("site analyzed", "url", siteURL, "generator", a.gen.Name(), "personnel", len(profile.KeyPersonnel))
	return &profile, nil
}

func (a *SiteAnalyst) fetch(ctx context.Context, siteURL string) (*pageExtract, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", siteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", siteURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", siteURL, err)
	}
	return extractPage(doc, base), nil
}

func extractPage(doc *goquery.Document, base *url.URL) *pageExtract {
	page := &pageExtract{
		Title: cleanText(doc.Find("title").First().Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		page.Description = cleanText(desc)
	} else if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		page.Description = cleanText(desc)
	}

	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			page.Headings = append(page.Headings, text)
		}
	})

	// Team pages commonly mark people up with these classes
	doc.Find(".team-member, .person, .partner, [itemtype*='schema.org/Person']").Each(func(_ int, s *goquery.Selection) {
		name := cleanText(s.Find("h3, h4, .name, [itemprop='name']").First().Text())
		title := cleanText(s.Find(".title, .role, [itemprop='jobTitle']").First().Text())
		switch {
		case name != "" && title != "":
			page.People = append(page.People, name+", "+title)
		case name != "":
			page.People = append(page.People, name)
		}
	})

	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if !isSocialHost(abs.Hostname()) || seen[abs.String()] {
			return
		}
		seen[abs.String()] = true
		page.Links = append(page.Links, abs.String())
	})

	doc.Find("script, style, noscript").Remove()
	page.Text = truncateRunes(cleanText(doc.Find("body").Text()), maxPageTextRunes)
	return page
}

// profileFromExtract is the model-free profile: people from team markup,
// thesis from the meta description, social links as public links.
func profileFromExtract(page *pageExtract) *models.SiteProfile {
	thesis := page.Description
	if thesis == "" {
		thesis = page.Title
	}
	return &models.SiteProfile{
		KeyPersonnel:      append([]string{}, page.People...),
		InvestmentThesis:  thesis,
		RecentInvestments: []string{},
		PublicLinks:       append([]string{}, page.Links...),
	}
}

func isSocialHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, social := range socialHosts {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}
	return false
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func mergeUnique(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
