package crawler

import (
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingwatcher/helpers"
	"sjsage522/listingwatcher/logger"
)

// Extractor turns listing page markup into Listing records
type Extractor struct {
	baseURL   *url.URL
	selectors Selectors
	log       *logger.Logger
}

// NewExtractor creates an extractor for the given profile
func NewExtractor(profile Profile) (*Extractor, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(profile.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	return &Extractor{
		baseURL:   base,
		selectors: profile.Selectors,
		log:       logger.ForCrawler(profile.Name),
	}, nil
}

// Extract parses the markup and yields listings in page order. Items are
// converted only as the caller pulls them. Markup that cannot be parsed
// yields nothing.
func (e *Extractor) Extract(r io.Reader) iter.Seq[Listing] {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to parse listing page")
		return func(func(Listing) bool) {}
	}

	items := doc.Find(e.selectors.Item)
	e.log.Debug().Int("items", items.Length()).Msg("Parsed listing page")

	return func(yield func(Listing) bool) {
		for i := range items.Length() {
			listing, ok := e.processItem(items.Eq(i))
			if !ok {
				continue
			}
			if !yield(listing) {
				return
			}
		}
	}
}

// processItem extracts one listing; items without a link have no identity
// and are skipped
func (e *Extractor) processItem(s *goquery.Selection) (Listing, bool) {
	href, exists := s.Find(e.selectors.Link).First().Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return Listing{}, false
	}

	link, err := e.ResolveURL(strings.TrimSpace(href))
	if err != nil {
		e.log.Debug().Err(err).Str("href", href).Msg("Skipping listing with unusable link")
		return Listing{}, false
	}

	return Listing{
		Title:            e.text(s, e.selectors.Title),
		Price:            helpers.ParsePrice(e.text(s, e.selectors.Price)),
		URL:              link,
		ImageURL:         e.image(s),
		DateLabel:        strings.ToLower(e.text(s, e.selectors.Date)),
		ShortDescription: helpers.Truncate(e.text(s, e.selectors.Description), ShortDescriptionLimit),
	}, true
}

func (e *Extractor) text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return helpers.CollapseSpace(s.Find(selector).First().Text())
}

func (e *Extractor) image(s *goquery.Selection) string {
	if e.selectors.Image == "" {
		return ""
	}

	img := s.Find(e.selectors.Image).First()
	for _, attr := range []string{"src", "data-src"} {
		if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
			resolved, err := e.ResolveURL(strings.TrimSpace(src))
			if err != nil {
				return ""
			}
			return resolved
		}
	}
	return ""
}

// ResolveURL absolutizes ref against the site's base origin
func (e *Extractor) ResolveURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	resolved := e.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", resolved.Scheme)
	}
	return resolved.String(), nil
}
