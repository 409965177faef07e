// Package portal finds links from a career page to hosted applicant
// tracking systems (ATS).
package portal

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/careerscout/internal/config"
)

// Link is an outbound URL matched against the vendor table.
type Link struct {
	URL    string
	Vendor string
}

type pattern struct {
	vendor string
	host   string
}

// Detector matches link targets against a fixed vendor table.
type Detector struct {
	patterns []pattern
}

// NewDetector builds a Detector from the vendor table. Patterns are tried in
// table order, so more specific domains should be listed first.
func NewDetector(vendors []config.VendorPattern) *Detector {
	d := &Detector{}
	for _, v := range vendors {
		for _, p := range v.Patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			d.patterns = append(d.patterns, pattern{vendor: v.Vendor, host: p})
		}
	}
	return d
}

// Vendor returns the ATS vendor whose pattern is rawURL's host or a parent
// domain of it. Paths and query strings never match.
func (d *Detector) Vendor(rawURL string) (string, bool) {
	host := hostOf(rawURL)
	if host == "" {
		return "", false
	}
	return d.vendorForHost(host)
}

func (d *Detector) vendorForHost(host string) (string, bool) {
	for _, p := range d.patterns {
		if host == p.host || strings.HasSuffix(host, "."+p.host) {
			return p.vendor, true
		}
	}
	return "", false
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "//") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// withVendorScheme turns a bare "boards.greenhouse.io/acme" href into an
// absolute https URL when its first segment is a vendor host. Anything else
// is returned unchanged and resolves as a relative path.
func (d *Detector) withVendorScheme(target string) string {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "//") {
		return target
	}
	switch target[0] {
	case '/', '.', '?', '#':
		return target
	}
	first := target
	if i := strings.IndexAny(first, "/?#"); i >= 0 {
		first = first[:i]
	}
	if !strings.Contains(first, ".") || strings.Contains(first, ":") {
		return target
	}
	if _, ok := d.vendorForHost(strings.ToLower(first)); !ok {
		return target
	}
	return "https://" + target
}

// Detect returns vendor links in document order with duplicates removed.
// Relative targets are resolved against pageURL; links back to pageURL
// itself are ignored. No matches is a normal outcome.
func (d *Detector) Detect(html, pageURL string) []Link {
	if len(d.patterns) == 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(pageURL)
	self := normalizeLink(pageURL)

	seen := make(map[string]bool)
	var links []Link

	doc.Find("a[href], area[href], iframe[src]").Each(func(_ int, s *goquery.Selection) {
		target, ok := s.Attr("href")
		if !ok {
			target, _ = s.Attr("src")
		}
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}

		linkURL, err := url.Parse(d.withVendorScheme(target))
		if err != nil {
			return
		}
		if base != nil {
			linkURL = base.ResolveReference(linkURL)
		}
		if linkURL.Scheme != "http" && linkURL.Scheme != "https" {
			return
		}
		linkURL.Fragment = ""

		absolute := linkURL.String()
		key := normalizeLink(absolute)
		if key == self || seen[key] {
			return
		}

		vendor, ok := d.vendorForHost(strings.ToLower(linkURL.Hostname()))
		if !ok {
			return
		}

		seen[key] = true
		links = append(links, Link{URL: absolute, Vendor: vendor})
	})

	return links
}

// normalizeLink is the dedup key: lowercased, no fragment or trailing slash.
func normalizeLink(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	return strings.TrimSuffix(strings.ToLower(rawURL), "/")
}
