package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/davidmey/commune/internal/models"
)

// PreviewResolver resolves link-preview metadata for a URL. Resolution
// is best-effort: a failure never blocks the send that carried the URL.
type PreviewResolver interface {
	Resolve(ctx context.Context, url string) (*models.LinkPreview, error)
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// FirstURL returns the first http(s) URL in a message body, or "".
func FirstURL(body string) string {
	return urlPattern.FindString(body)
}

// OpenGraphResolver fetches a page and reads its OpenGraph meta tags,
// falling back to the <title> element. The whole fetch shares one short
// deadline so a slow page can't stall the send pipeline.
type OpenGraphResolver struct {
	client  *http.Client
	maxBody int64
}

func NewOpenGraphResolver() *OpenGraphResolver {
	return &OpenGraphResolver{
		client:  &http.Client{Timeout: 3 * time.Second},
		maxBody: 512 * 1024,
	}
}

func (r *OpenGraphResolver) Resolve(ctx context.Context, url string) (*models.LinkPreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build preview request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch preview: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("fetch preview: unsupported content type %q", ct)
	}

	preview, err := parseOpenGraph(io.LimitReader(resp.Body, r.maxBody), url)
	if err != nil {
		return nil, err
	}
	if preview.Title == "" && preview.Description == "" {
		return nil, fmt.Errorf("no preview metadata at %s", url)
	}
	return preview, nil
}

func parseOpenGraph(body io.Reader, url string) (*models.LinkPreview, error) {
	preview := &models.LinkPreview{URL: url}
	tokenizer := html.NewTokenizer(body)

	var inTitle bool
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed markup past the head; either way we
			// keep whatever was collected.
			return preview, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "meta":
				var property, content string
				for _, attr := range token.Attr {
					switch attr.Key {
					case "property", "name":
						property = attr.Val
					case "content":
						content = attr.Val
					}
				}
				switch property {
				case "og:title":
					preview.Title = content
				case "og:description", "description":
					if preview.Description == "" {
						preview.Description = content
					}
				case "og:image":
					preview.ImageURL = content
				}
			case "title":
				inTitle = true
			case "body":
				// Metadata lives in the head; stop before the content.
				return preview, nil
			}

		case html.TextToken:
			if inTitle && preview.Title == "" {
				preview.Title = strings.TrimSpace(tokenizer.Token().Data)
			}

		case html.EndTagToken:
			if tokenizer.Token().Data == "title" {
				inTitle = false
			}
		}
	}
}
