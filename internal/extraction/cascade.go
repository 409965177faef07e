// Package extraction pulls job postings out of career pages with unknown
// layouts by trying an ordered list of strategies.
package extraction

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/careerscout/internal/types"
)

// DefaultMaxJobs caps the records taken from a single page.
const DefaultMaxJobs = 20

const (
	minLinkText = 10
	maxLinkText = 100
)

// Cascade runs vendor-structured, generic-structured and keyword-link
// extraction in that order and stops at the first that yields anything.
type Cascade struct {
	vendor   []CardSelectors
	generic  []CardSelectors
	keywords []string
	maxJobs  int
	now      func() time.Time
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithMaxJobs sets the per-page record cap.
func WithMaxJobs(n int) Option {
	return func(c *Cascade) {
		if n > 0 {
			c.maxJobs = n
		}
	}
}

// WithRoleKeywords replaces the keyword-link role vocabulary.
func WithRoleKeywords(keywords []string) Option {
	return func(c *Cascade) {
		if len(keywords) > 0 {
			c.keywords = lowerAll(keywords)
		}
	}
}

// WithClock sets the time source stamped into ScrapedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cascade) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCascade creates a Cascade over the built-in selector tables.
func NewCascade(opts ...Option) *Cascade {
	c := &Cascade{
		vendor:   VendorSelectors,
		generic:  GenericSelectors,
		keywords: lowerAll(DefaultRoleKeywords),
		maxJobs:  DefaultMaxJobs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// page is one parsed document plus the context stamped into every record.
type page struct {
	doc       *goquery.Document
	sourceURL string
	origin    *url.URL
	company   types.Company
	scrapedAt time.Time
}

type strategy struct {
	method types.DiscoveryMethod
	run    func(p *page) []types.JobRecord
}

// Extract returns the records of the first strategy that finds any, and
// that strategy's method. No records yields (nil, MethodNone).
func (c *Cascade) Extract(html, sourceURL string, company types.Company) ([]types.JobRecord, types.DiscoveryMethod) {
	p := c.parse(html, sourceURL, company)
	if p == nil {
		return nil, types.MethodNone
	}

	strategies := []strategy{
		{method: types.MethodVendorStructured, run: func(p *page) []types.JobRecord {
			return c.structured(p, c.vendor, types.MethodVendorStructured)
		}},
		{method: types.MethodGenericStructured, run: func(p *page) []types.JobRecord {
			return c.structured(p, c.generic, types.MethodGenericStructured)
		}},
		{method: types.MethodKeywordLink, run: c.keywordLinks},
	}

	for _, s := range strategies {
		if records := s.run(p); len(records) > 0 {
			return records, s.method
		}
	}
	return nil, types.MethodNone
}

// KeywordLinks runs only the keyword-link strategy.
func (c *Cascade) KeywordLinks(html, sourceURL string, company types.Company) []types.JobRecord {
	p := c.parse(html, sourceURL, company)
	if p == nil {
		return nil
	}
	return c.keywordLinks(p)
}

func (c *Cascade) parse(html, sourceURL string, company types.Company) *page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	p := &page{
		doc:       doc,
		sourceURL: sourceURL,
		company:   company,
		scrapedAt: c.now().UTC(),
	}
	if u, err := url.Parse(sourceURL); err == nil && u.Scheme != "" && u.Host != "" {
		p.origin = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	}
	return p
}

// structured tries each selector set in order and returns the first
// non-empty result. Selectors that match nothing simply yield nothing.
func (c *Cascade) structured(p *page, tables []CardSelectors, method types.DiscoveryMethod) []types.JobRecord {
	for _, sel := range tables {
		if records := c.cards(p, sel, method); len(records) > 0 {
			return records
		}
	}
	return nil
}

func (c *Cascade) cards(p *page, sel CardSelectors, method types.DiscoveryMethod) []types.JobRecord {
	var records []types.JobRecord
	seen := make(map[string]bool)

	p.doc.Find(sel.Card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		var title string
		if sel.Title == "" {
			title = CleanText(card.Text())
		} else {
			title = CleanText(card.Find(sel.Title).First().Text())
		}
		if !AcceptableTitle(title) {
			return true
		}

		var location string
		if sel.Location != "" {
			location = CleanText(card.Find(sel.Location).First().Text())
		}

		href, _ := card.Find("a[href]").First().Attr("href")
		if goquery.NodeName(card) == "a" {
			href, _ = card.Attr("href")
		}

		record := p.record(title, location, href, method)
		key := dedupKey(record)
		if seen[key] {
			return true
		}
		seen[key] = true

		records = append(records, record)
		return len(records) < c.maxJobs
	})

	return records
}

// keywordLinks treats anchors whose text looks like a role title as jobs.
// Highest false-positive rate of the three strategies.
func (c *Cascade) keywordLinks(p *page) []types.JobRecord {
	var records []types.JobRecord
	seen := make(map[string]bool)

	p.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := CleanText(s.Text())
		n := utf8.RuneCountInString(text)
		if n < minLinkText || n > maxLinkText || !AcceptableTitle(text) {
			return true
		}
		if !c.hasRoleKeyword(text) {
			return true
		}

		href, _ := s.Attr("href")
		record := p.record(text, "", href, types.MethodKeywordLink)
		key := dedupKey(record)
		if seen[key] {
			return true
		}
		seen[key] = true

		records = append(records, record)
		return len(records) < c.maxJobs
	})

	return records
}

func (c *Cascade) hasRoleKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (p *page) record(title, location, href string, method types.DiscoveryMethod) types.JobRecord {
	applicationURL := p.resolve(href)
	if applicationURL == "" {
		applicationURL = p.sourceURL
	}
	return types.JobRecord{
		Title:           title,
		Company:         p.company.Name,
		Location:        location,
		Sector:          p.company.Sector,
		ApplicationURL:  applicationURL,
		SourceURL:       p.sourceURL,
		DiscoveryMethod: method,
		ScrapedAt:       p.scrapedAt,
	}
}

// resolve makes href absolute against the source origin. Returns "" for
// fragments, script links, and anything that is not http(s).
func (p *page) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		if p.origin == nil {
			return ""
		}
		ref = p.origin.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}

func dedupKey(r types.JobRecord) string {
	return strings.ToLower(r.Title + "|" + r.Location + "|" + r.ApplicationURL)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
