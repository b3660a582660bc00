// Package testrail provides a client for the TestRail REST API.
package testrail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds TestRail connection settings.
type Config struct {
	URL    string // e.g. https://example.testrail.io
	Email  string
	APIKey string
}

// Client is a TestRail REST API client.
type Client struct {
	baseURL    string
	email      string
	apiKey     string
	batchSize  int
	httpClient *http.Client
}

// New creates a new TestRail client.
func New(cfg Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		email:     cfg.Email,
		apiKey:    cfg.APIKey,
		batchSize: 250,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Case is one raw test-case record. Custom field names vary by project
// configuration, so the record is kept as a loose map and resolved at
// transform time.
type Case map[string]any

// ID returns the numeric case id, 0 when absent.
func (c Case) ID() int64 {
	switch v := c["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// Title returns the case title, empty when absent.
func (c Case) Title() string {
	s, _ := c["title"].(string)
	return s
}

// Section is a test-suite section (epic grouping) from the API.
type Section struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SectionMap indexes sections by id for epic-name lookup.
func SectionMap(sections []Section) map[int64]string {
	m := make(map[int64]string, len(sections))
	for _, s := range sections {
		m[s.ID] = s.Name
	}
	return m
}

// casesResponse is the enveloped form returned by TestRail 6.7+.
// Older servers return a bare JSON array instead.
type casesResponse struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Size   int    `json:"size"`
	Cases  []Case `json:"cases"`
}

type sectionsResponse struct {
	Sections []Section `json:"sections"`
}

// GetCases fetches all test cases for a project and suite, paginating
// in fixed-size batches until a short or empty page is returned.
func (c *Client) GetCases(ctx context.Context, projectID, suiteID int) ([]Case, error) {
	var allCases []Case
	offset := 0

	for {
		params := url.Values{
			"suite_id": {fmt.Sprintf("%d", suiteID)},
			"limit":    {fmt.Sprintf("%d", c.batchSize)},
			"offset":   {fmt.Sprintf("%d", offset)},
		}
		reqURL := fmt.Sprintf("%s/index.php?/api/v2/get_cases/%d&%s", c.baseURL, projectID, params.Encode())

		body, err := c.doGet(ctx, reqURL)
		if err != nil {
			return nil, fmt.Errorf("get cases: %w", err)
		}

		batch, err := decodeCases(body)
		if err != nil {
			return nil, fmt.Errorf("decode cases response: %w", err)
		}

		if len(batch) == 0 {
			break
		}
		allCases = append(allCases, batch...)

		if len(batch) < c.batchSize {
			break
		}
		offset += c.batchSize
	}

	return allCases, nil
}

// GetSections fetches all sections for a project and suite.
func (c *Client) GetSections(ctx context.Context, projectID, suiteID int) ([]Section, error) {
	var all []Section
	offset := 0

	for {
		params := url.Values{
			"suite_id": {fmt.Sprintf("%d", suiteID)},
			"limit":    {fmt.Sprintf("%d", c.batchSize)},
			"offset":   {fmt.Sprintf("%d", offset)},
		}
		reqURL := fmt.Sprintf("%s/index.php?/api/v2/get_sections/%d&%s", c.baseURL, projectID, params.Encode())

		body, err := c.doGet(ctx, reqURL)
		if err != nil {
			return nil, fmt.Errorf("get sections: %w", err)
		}

		batch, err := decodeSections(body)
		if err != nil {
			return nil, fmt.Errorf("decode sections response: %w", err)
		}

		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)

		if len(batch) < c.batchSize {
			break
		}
		offset += c.batchSize
	}

	return all, nil
}

func decodeCases(body []byte) ([]Case, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var cases []Case
		if err := json.Unmarshal(body, &cases); err != nil {
			return nil, err
		}
		return cases, nil
	}
	var resp casesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Cases, nil
}

func decodeSections(body []byte) ([]Section, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var sections []Section
		if err := json.Unmarshal(body, &sections); err != nil {
			return nil, err
		}
		return sections, nil
	}
	var resp sectionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Sections, nil
}

func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.email, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TestRail API returned %d: %s", resp.StatusCode, string(body[:min(len(body), 200)]))
	}

	return body, nil
}
