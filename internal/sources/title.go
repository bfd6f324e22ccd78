package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TitleFetcher reads an article's headline from its HTML, preferring the
// og:title meta tag over <title>.
type TitleFetcher struct {
	HTTP *HTTP
}

func (t *TitleFetcher) Title(ctx context.Context, pageURL string) (string, error) {
	resp, err := t.HTTP.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if resp.status != 200 {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.status)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og), nil
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}
