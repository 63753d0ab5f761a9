package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScraperConfig(t *testing.T) {
	config := Config{
		BaseURL:        "https://docs.example.com",
		MaxDepth:       5,
		RateLimit:      1.0,
		IgnorePatterns: []string{"/changelog/", "private"},
		Timeout:        10 * time.Second,
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)
	assert.Equal(t, config.BaseURL, s.config.BaseURL)
	assert.Equal(t, config.MaxDepth, s.config.MaxDepth)
}

func TestShouldProcessURL(t *testing.T) {
	config := Config{
		BaseURL:           "https://docs.example.com",
		IgnorePatterns:    []string{"/changelog/", "private"},
		AllowedExtensions: []string{".html", "/"},
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://docs.example.com/api/", true},
		{"https://docs.example.com/endpoints.html", true},
		{"https://docs.example.com/changelog/v2.html", false},
		{"https://other-domain.com/endpoints.html", false},
		{"https://docs.example.com/spec.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.shouldProcessURL(tt.url))
		})
	}
}

func TestScrapeWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<html>
				<head><title>Users API</title></head>
				<body>
					<main>
						<h1>Users</h1>
						<p>GET /users returns all users.</p>
						<a href="/orders.html">Orders</a>
					</main>
				</body>
			</html>
		`))
	}))
	defer server.Close()

	config := Config{
		BaseURL:   server.URL,
		MaxDepth:  1,
		RateLimit: 10,
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)

	docs, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	doc := docs[0]
	assert.Equal(t, server.URL, doc.Source)
	assert.Equal(t, "Users API", doc.Title)
	assert.Contains(t, doc.Content, "GET /users returns all users.")
	assert.NotEmpty(t, doc.ID)
}

func TestScrapeVisitsEachPageOnce(t *testing.T) {
	hits := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		w.Header().Set("Content-Type", "text/html")
		// Every page links to both subpages.
		w.Write([]byte(`<html><head><title>Page</title></head><body><main>
			<p>Some documentation text.</p>
			<a href="/users/">users</a><a href="/orders/">orders</a>
		</main></body></html>`))
	}))
	defer server.Close()

	s, err := NewWithConfig(Config{BaseURL: server.URL, MaxDepth: 3, RateLimit: 100})
	require.NoError(t, err)

	docs, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	for path, count := range hits {
		assert.Equal(t, 1, count, "path %s fetched more than once", path)
	}
}

func TestSlugFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://docs.example.com/api/users", "docs-example-com-api-users"},
		{"https://docs.example.com/", "docs-example-com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, slugFromURL(tt.url))
		})
	}
}
