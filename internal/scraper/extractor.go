package scraper

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"letraz-jobboard/internal/platforms"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// SelectorExtractor applies ordered selector fallbacks with goquery
type SelectorExtractor struct{}

// NewSelectorExtractor creates a new extractor
func NewSelectorExtractor() *SelectorExtractor {
	return &SelectorExtractor{}
}

// Extract finds job cards with the first job_card selector that matches at
// least one element, then fills every field from inside each card.
func (e *SelectorExtractor) Extract(html []byte, selectors platforms.SelectorSet, opts ExtractOptions) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, utils.NewExtractionError(utils.KindParse, "", "failed to parse html", err)
	}

	base, _ := url.Parse(opts.BaseURL)
	defaultCompany := NormalizeText(opts.DefaultCompany)
	result := &Extraction{}

	var cards *goquery.Selection
	for _, sel := range selectors.JobCard {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			result.CardSelector = sel
			break
		}
	}
	if cards == nil {
		return result, nil
	}

	cards.Each(func(_ int, card *goquery.Selection) {
		raw := extractCard(card, selectors, base)
		if raw.Company == "" {
			raw.Company = defaultCompany
		}
		if !raw.Promotable() {
			result.Skipped++
			return
		}
		result.Cards = append(result.Cards, raw)
	})

	return result, nil
}

func extractCard(card *goquery.Selection, selectors platforms.SelectorSet, base *url.URL) models.RawJobCard {
	return models.RawJobCard{
		Title:       firstText(card, selectors.Title),
		Company:     firstText(card, selectors.Company),
		Location:    firstText(card, selectors.Location),
		Description: firstText(card, selectors.Description),
		URL:         firstHref(card, selectors.URL, base),
		Salary:      firstText(card, selectors.Salary),
		PostedDate:  firstText(card, selectors.PostedDate),
	}
}

// firstText returns the first non-empty normalized text among selectors, tried in order
func firstText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := NormalizeText(card.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstHref resolves the first usable href against base. The card itself is
// considered when it matches the selector, since some boards render cards as links.
func firstHref(card *goquery.Selection, selectors []string, base *url.URL) string {
	for _, sel := range selectors {
		match := card.Find(sel).First()
		if match.Length() == 0 && card.Is(sel) {
			match = card
		}
		href, ok := match.Attr("href")
		if !ok {
			continue
		}
		if resolved := resolveHref(href, base); resolved != "" {
			return resolved
		}
	}
	return ""
}

func resolveHref(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

var _ CardExtractor = (*SelectorExtractor)(nil)
