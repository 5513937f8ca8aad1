package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound reports a valid request for which the server has no matching
// post or page.
var ErrNotFound = errors.New("not found")

// Summary is the subset of post fields returned by the listing endpoint.
// Summaries are immutable once fetched; two summaries are the same post when
// their IDs match.
type Summary struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	ShortDesc   string    `json:"shortDesc"`
	Thumbnail   string    `json:"thumbnail"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Detail is the full post record produced only by the detail endpoint.
type Detail struct {
	Summary
	Content      string    `json:"content"`
	RelatedPosts []Summary `json:"relatedPosts"`
}

// Related returns the post's related summaries with the post itself filtered
// out. The server may legitimately include the post among its own related
// items; callers must never render that echo.
func (d Detail) Related() []Summary {
	out := make([]Summary, 0, len(d.RelatedPosts))
	for _, s := range d.RelatedPosts {
		if s.ID == d.ID {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Page is one fetched slice of the listing. NextPage is nil once the listing
// is exhausted.
type Page struct {
	Items    []Summary `json:"items"`
	NextPage *int      `json:"nextPage"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// ListPosts fetches one page of the feed listing. Pages are numbered from 1.
func (c *Client) ListPosts(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}

	q := make(url.Values)
	q.Set("page", strconv.Itoa(page))

	req, err := c.newRequest(ctx, "/api/posts?"+q.Encode())
	if err != nil {
		return Page{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("list posts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Page{}, fmt.Errorf("list posts page %d: %w", page, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Page{}, fmt.Errorf("list posts failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Page{}, fmt.Errorf("decode posts response: %w", err)
	}
	return result, nil
}

// GetPost fetches the full detail record for one slug.
func (c *Client) GetPost(ctx context.Context, slug string) (Detail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Detail{}, fmt.Errorf("get post: empty slug")
	}

	req, err := c.newRequest(ctx, "/api/post/"+url.PathEscape(slug))
	if err != nil {
		return Detail{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Detail{}, fmt.Errorf("get post request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Detail{}, fmt.Errorf("get post %q: %w", slug, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Detail{}, fmt.Errorf("get post failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var detail Detail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return Detail{}, fmt.Errorf("decode post response: %w", err)
	}
	return detail, nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
