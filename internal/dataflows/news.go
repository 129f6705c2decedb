package dataflows

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// NewsScraper pulls headlines from the Google News search page. It is the
// fallback for symbols and topics the paid news APIs do not cover.
type NewsScraper struct {
	client *resty.Client
	cache  *Cache
}

func NewNewsScraper(cacheDir string, cacheEnabled bool) *NewsScraper {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; tradecouncil/1.0)")
	return &NewsScraper{
		client: client,
		cache:  NewCache(filepath.Join(cacheDir, "news"), 2*time.Hour, cacheEnabled),
	}
}

// Search scrapes Google News results for a query within a date range.
func (n *NewsScraper) Search(query string, start, end time.Time, maxResults int) ([]*NewsArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	cacheKey := map[string]string{
		"query": query,
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
		"max":   strconv.Itoa(maxResults),
	}
	var cached []*NewsArticle
	if n.cache.Get("google_news", "search", cacheKey, &cached) {
		return cached, nil
	}

	resp, err := n.client.R().Get(searchURL(query, start, end))
	if err != nil {
		return nil, fmt.Errorf("fetch google news: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("google news: status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse google news HTML: %w", err)
	}

	articles := parseResults(doc)
	if len(articles) > maxResults {
		articles = articles[:maxResults]
	}
	n.cache.Set("google_news", "search", cacheKey, articles)
	return articles, nil
}

func searchURL(query string, start, end time.Time) string {
	q := query
	if !start.IsZero() && !end.IsZero() {
		q += fmt.Sprintf(" after:%s before:%s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return fmt.Sprintf("https://news.google.com/search?q=%s&hl=en&gl=US&ceid=US:en",
		url.QueryEscape(q))
}

func parseResults(doc *goquery.Document) []*NewsArticle {
	var articles []*NewsArticle
	doc.Find("article").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h4").Text())
		}
		if title == "" {
			return
		}
		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return
		}
		source := strings.TrimSpace(s.Find("div[data-n-tid]").Text())
		if source == "" {
			source = "Google News"
		}
		articles = append(articles, &NewsArticle{
			Title:       title,
			Content:     strings.TrimSpace(s.Find("span").Last().Text()),
			URL:         absoluteURL(href),
			Source:      source,
			PublishedAt: parseRelativeTime(strings.TrimSpace(s.Find("time").Text())),
		})
	})
	return articles
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "./") {
		return "https://news.google.com" + href[1:]
	}
	if strings.HasPrefix(href, "/") {
		return "https://news.google.com" + href
	}
	return href
}

var relTimeRe = regexp.MustCompile(`(\d+)\s*(minute|hour|day|week)s?\s*ago`)

// parseRelativeTime converts Google's relative timestamps ("3 hours ago")
// to absolute times; unparseable text is treated as one hour old.
func parseRelativeTime(text string) time.Time {
	now := time.Now()
	m := relTimeRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return now.Add(-time.Hour)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	}
	return now.Add(-time.Hour)
}
