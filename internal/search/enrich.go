package search

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"ofertaglobal/dealfinder/helpers"
	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/parser"
	"ofertaglobal/dealfinder/logger"
	"ofertaglobal/dealfinder/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// imageSelectors are tried in order on a product page
var imageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[name="og:image"]`, "content"},
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

// FetchFunc fetches a page as UTF-8 HTML
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// ImageEnricher looks up a product photo for deals the model returned without one
type ImageEnricher struct {
	fetch       FetchFunc
	concurrency int
	log         *logger.Logger
}

// NewImageEnricher creates an enricher that fetches at most concurrency pages at once.
// Product URLs on loopback or private networks are never fetched.
func NewImageEnricher(concurrency int) *ImageEnricher {
	return newImageEnricher(helpers.FetchPublicPage, concurrency)
}

func newImageEnricher(fetch FetchFunc, concurrency int) *ImageEnricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImageEnricher{
		fetch:       fetch,
		concurrency: concurrency,
		log:         logger.ForSearch(),
	}
}

// Enrich returns deals with ImageURL filled in where a product page exposes one.
// Deals that already have an image, or point at a homepage, are left alone.
func (e *ImageEnricher) Enrich(ctx context.Context, deals []deal.Deal) []deal.Deal {
	enriched := make([]deal.Deal, len(deals))
	copy(enriched, deals)

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i := range enriched {
		if enriched[i].ImageURL != "" || !parser.IsDeepLink(enriched[i].URL, enriched[i].Store) {
			continue
		}

		wg.Add(1)
		go func(d *deal.Deal) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if image, ok := e.lookupImage(ctx, d.URL); ok {
				d.ImageURL = image
			}
		}(&enriched[i])
	}

	wg.Wait()
	return enriched
}

func (e *ImageEnricher) lookupImage(ctx context.Context, pageURL string) (string, bool) {
	body, err := e.fetch(ctx, pageURL)
	if err != nil {
		e.log.Debug().Err(err).Str("url", pageURL).Msg("Product page fetch failed")
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		e.log.Debug().
			Err(errors.NewParsing("enricher", "product page is not HTML", err)).
			Str("url", pageURL).
			Msg("Product page parse failed")
		return "", false
	}

	base, _ := url.Parse(pageURL)
	for _, s := range imageSelectors {
		value, exists := doc.Find(s.selector).First().Attr(s.attr)
		if !exists || strings.TrimSpace(value) == "" {
			continue
		}
		if image, ok := parser.CleanURL(resolve(base, value)); ok {
			return image, true
		}
	}

	return "", false
}

// resolve makes a possibly relative image reference absolute
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
