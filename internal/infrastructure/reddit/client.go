// Package reddit implements the forum provider adapter against Reddit's
// OAuth2 API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"newsagent/internal/domain"
	"newsagent/internal/ports"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase  = "https://oauth.reddit.com"

	// One generous ceiling for every outbound call in a run; sized for the
	// slowest provider in the pipeline.
	requestTimeout = 300 * time.Second
)

// Client talks to the Reddit API with client-credentials auth.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	tokenURL     string
	apiBase      string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ ports.ForumClient = (*Client)(nil)

// NewClient builds a client from provider credentials.
func NewClient(clientID, clientSecret, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "newsagent/1.0"
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		tokenURL:     defaultTokenURL,
		apiBase:      defaultAPIBase,
		http:         &http.Client{Timeout: requestTimeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached bearer token, refreshing it shortly before expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// listingResponse mirrors Reddit's listing envelope for posts.
type listingResponse struct {
	Data struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Subreddit   string `json:"subreddit"`
	Permalink   string `json:"permalink"`
	Selftext    string `json:"selftext"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

// commentListing is one element of the two-part thread response: the post
// listing followed by the comment tree.
type commentListing struct {
	Data struct {
		Children []commentChild `json:"children"`
	} `json:"data"`
}

type commentChild struct {
	Kind string `json:"kind"`
	Data struct {
		Body    string          `json:"body"`
		Score   int             `json:"score"`
		Replies json.RawMessage `json:"replies"`
		// Post fields, populated on the first listing's child only.
		ID          string `json:"id"`
		Title       string `json:"title"`
		Author      string `json:"author"`
		Subreddit   string `json:"subreddit"`
		Selftext    string `json:"selftext"`
		NumComments int    `json:"num_comments"`
	} `json:"data"`
}

// TopPosts returns the board's top posts for the recency window, in the
// order the provider ranked them.
func (c *Client) TopPosts(ctx context.Context, board string, limit int, filter domain.TimeFilter) ([]domain.Post, error) {
	apiURL := fmt.Sprintf("%s/r/%s/top.json?t=%s&limit=%d&raw_json=1",
		c.apiBase, url.PathEscape(board), filter, limit)

	var listing listingResponse
	if err := c.get(ctx, apiURL, &listing); err != nil {
		return nil, fmt.Errorf("top posts for r/%s: %w", board, err)
	}

	posts := make([]domain.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, toPost(child.Data))
	}
	return posts, nil
}

// Thread fetches a post with its full top-level comments and one level of
// replies, preserving provider order.
func (c *Client) Thread(ctx context.Context, permalink string) (*domain.Thread, error) {
	permalink = normalizePermalink(permalink)
	apiURL := fmt.Sprintf("%s%s.json?raw_json=1", c.apiBase, permalink)

	var result []commentListing
	if err := c.get(ctx, apiURL, &result); err != nil {
		return nil, fmt.Errorf("thread %s: %w", permalink, err)
	}
	if len(result) == 0 || len(result[0].Data.Children) == 0 {
		return nil, fmt.Errorf("thread %s: empty response", permalink)
	}

	first := result[0].Data.Children[0].Data
	thread := &domain.Thread{Post: domain.Post{
		ID:          first.ID,
		Title:       first.Title,
		Author:      first.Author,
		Board:       first.Subreddit,
		Permalink:   permalink,
		SelfText:    first.Selftext,
		Score:       first.Score,
		NumComments: first.NumComments,
	}}

	if len(result) > 1 {
		for _, child := range result[1].Data.Children {
			if child.Kind != "t1" {
				continue
			}
			comment := domain.Comment{
				Body:    child.Data.Body,
				Score:   child.Data.Score,
				Replies: parseReplies(child.Data.Replies),
			}
			thread.Comments = append(thread.Comments, comment)
		}
	}

	return thread, nil
}

// parseReplies decodes one level of nested replies. Reddit sends an empty
// string instead of an object when a comment has none.
func parseReplies(raw json.RawMessage) []domain.Reply {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}

	var listing commentListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil
	}

	var replies []domain.Reply
	for _, child := range listing.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		replies = append(replies, domain.Reply{Body: child.Data.Body, Score: child.Data.Score})
	}
	return replies
}

func (c *Client) get(ctx context.Context, apiURL string, v any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toPost(d postData) domain.Post {
	return domain.Post{
		ID:          d.ID,
		Title:       d.Title,
		Author:      d.Author,
		Board:       d.Subreddit,
		Permalink:   d.Permalink,
		SelfText:    d.Selftext,
		Score:       d.Score,
		NumComments: d.NumComments,
	}
}

func normalizePermalink(permalink string) string {
	permalink = strings.TrimPrefix(permalink, "https://reddit.com")
	permalink = strings.TrimPrefix(permalink, "https://www.reddit.com")
	if !strings.HasPrefix(permalink, "/") {
		permalink = "/" + permalink
	}
	return strings.TrimSuffix(permalink, "/")
}
