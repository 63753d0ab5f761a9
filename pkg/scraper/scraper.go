// Package scraper fetches hosted API documentation so it can be ingested
// through the same chunk/embed/store path as local files.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/mbarlow/apiq/internal/models"
)

type Config struct {
	BaseURL           string
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
}

type Scraper struct {
	config   Config
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
}

func NewWithConfig(config Config) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// Scrape crawls the documentation site starting at startURL, staying on
// the same host and within the configured depth, and returns one
// document per fetched page.
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]models.Document, error) {
	var documents []models.Document
	if err := s.scrapeRecursive(ctx, startURL, 0, &documents); err != nil {
		return documents, err
	}
	return documents, nil
}

func (s *Scraper) scrapeRecursive(ctx context.Context, pageURL string, depth int, documents *[]models.Document) error {
	if depth > s.config.MaxDepth || s.visited[pageURL] {
		return nil
	}
	if !s.shouldProcessURL(pageURL) {
		return nil
	}

	s.visited[pageURL] = true
	if s.config.OnProgress != nil {
		s.config.OnProgress(pageURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	content := s.extractMainContent(doc)
	if content != "" {
		*documents = append(*documents, models.Document{
			ID:      slugFromURL(pageURL),
			Source:  pageURL,
			Title:   strings.TrimSpace(doc.Find("title").Text()),
			Content: content,
		})
	}

	// Follow same-host links.
	var links []string
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		if !ref.IsAbs() {
			base, err := url.Parse(pageURL)
			if err != nil {
				return
			}
			ref = base.ResolveReference(ref)
		}
		ref.Fragment = ""
		links = append(links, ref.String())
	})

	for _, link := range links {
		if err := s.scrapeRecursive(ctx, link, depth+1, documents); err != nil {
			// A single bad page should not sink the crawl.
			continue
		}
	}

	return nil
}

func (s *Scraper) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsedURL.Host != s.baseHost {
		return false
	}

	path := strings.ToLower(parsedURL.Path)
	validExt := false
	for _, allowed := range s.config.AllowedExtensions {
		if strings.HasSuffix(path, allowed) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

func (s *Scraper) extractMainContent(doc *goquery.Document) string {
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if content == "" {
		content = doc.Find("body").Text()
	}

	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}

// slugFromURL derives a stable document id from a page URL so that
// re-scraping the same site upserts over the previous records.
func slugFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	slug := parsed.Host + parsed.Path
	slug = strings.Trim(slug, "/")
	replacer := strings.NewReplacer("/", "-", ".", "-", ":", "-")
	slug = replacer.Replace(slug)
	if slug == "" {
		slug = "index"
	}
	return slug
}
