package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

var ErrPublishFailed = errors.New("confluence publish failed")

// Client Confluence REST API 客户端，basic auth
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	httpClient *http.Client
}

func NewClient(baseURL, username, apiToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) contentURL() string {
	return c.baseURL + "/rest/api/content"
}

// Page Confluence 页面的关键字段
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

type searchResult struct {
	Results []Page `json:"results"`
}

type pagePayload struct {
	ID        string         `json:"id,omitempty"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Space     *spaceRef      `json:"space,omitempty"`
	Body      pageBody       `json:"body"`
	Version   *pageVersion   `json:"version,omitempty"`
	Ancestors []ancestorRef  `json:"ancestors,omitempty"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type pageBody struct {
	Storage storageBody `json:"storage"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type pageVersion struct {
	Number int `json:"number"`
}

type ancestorRef struct {
	ID string `json:"id"`
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// FindPage 按空间和标题查页面，没有时返回 nil
func (c *Client) FindPage(ctx context.Context, spaceKey, title string) (*Page, error) {
	query := url.Values{}
	query.Set("spaceKey", spaceKey)
	query.Set("title", title)
	query.Set("expand", "version")

	resp, err := c.do(ctx, http.MethodGet, c.contentURL()+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned status %d", ErrPublishFailed, resp.StatusCode)
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

// CreatePage 新建页面，parentID 非空时挂在父页面下
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, content, parentID string) (*Page, error) {
	payload := pagePayload{
		Type:  "page",
		Title: title,
		Space: &spaceRef{Key: spaceKey},
		Body: pageBody{
			Storage: storageBody{Value: content, Representation: "storage"},
		},
	}
	if parentID != "" {
		payload.Ancestors = []ancestorRef{{ID: parentID}}
	}

	resp, err := c.do(ctx, http.MethodPost, c.contentURL(), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: create returned status %d: %s", ErrPublishFailed, resp.StatusCode, detail)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode created page: %w", err)
	}
	return &page, nil
}

// UpdatePage 更新页面，版本号在当前版本上加一
func (c *Client) UpdatePage(ctx context.Context, pageID, title, content string, version int, parentID string) (*Page, error) {
	payload := pagePayload{
		ID:    pageID,
		Type:  "page",
		Title: title,
		Body: pageBody{
			Storage: storageBody{Value: content, Representation: "storage"},
		},
		Version: &pageVersion{Number: version + 1},
	}
	if parentID != "" {
		payload.Ancestors = []ancestorRef{{ID: parentID}}
	}

	resp, err := c.do(ctx, http.MethodPut, c.contentURL()+"/"+pageID, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: update returned status %d: %s", ErrPublishFailed, resp.StatusCode, detail)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode updated page: %w", err)
	}
	return &page, nil
}

// PublishContent 存在同名页面则更新，否则新建，返回可访问的页面地址
func (c *Client) PublishContent(ctx context.Context, spaceKey, title, content, parentID string) (*Page, string, error) {
	existing, err := c.FindPage(ctx, spaceKey, title)
	if err != nil {
		return nil, "", err
	}

	var page *Page
	if existing != nil {
		klog.V(6).Infof("页面 %s 已存在(id=%s)，按版本 %d 更新", title, existing.ID, existing.Version.Number)
		page, err = c.UpdatePage(ctx, existing.ID, title, content, existing.Version.Number, parentID)
	} else {
		klog.V(6).Infof("页面 %s 不存在，新建", title)
		page, err = c.CreatePage(ctx, spaceKey, title, content, parentID)
	}
	if err != nil {
		return nil, "", err
	}

	pageURL := page.Links.WebUI
	if pageURL != "" && !strings.HasPrefix(pageURL, "http") {
		pageURL = c.baseURL + pageURL
	}
	return page, pageURL, nil
}
