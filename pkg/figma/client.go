package figma

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kataras/figma-svg-export/pkg/fetch"
)

// Version is the current release of the exporter, sent in the User-Agent header.
const Version = "0.3.0"

// DefaultBaseURL is the Figma REST API root.
const DefaultBaseURL = "https://api.figma.com/v1"

// ErrRender is returned when the image endpoint reports an error in its body.
var ErrRender = errors.New("figma render error")

// Client is a Figma REST API client. Every request goes through a
// [fetch.Client] and therefore shares one retry policy.
type Client struct {
	accessToken string
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	policy      fetch.Policy
	fetch       *fetch.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithPolicy sets the retry and timeout policy.
func WithPolicy(p fetch.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new Figma API client with the provided personal access token.
func NewClient(accessToken string, opts ...Option) *Client {
	c := &Client{
		accessToken: accessToken,
		baseURL:     DefaultBaseURL,
		userAgent:   "figma-svg-export/" + Version,
		policy:      fetch.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.fetch = fetch.New(c.httpClient, c.policy, map[string]string{
		"User-Agent": c.userAgent,
	})
	return c
}

func (c *Client) apiHeaders() map[string]string {
	return map[string]string{
		"X-Figma-Token": c.accessToken,
		"Accept":        "application/json",
	}
}

// GetFile retrieves the complete document tree of a file.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*FileResponse, error) {
	endpoint := fmt.Sprintf("%s/files/%s", c.baseURL, url.PathEscape(fileKey))

	var fileResp FileResponse
	if err := c.fetch.GetJSON(ctx, endpoint, c.apiHeaders(), &fileResp); err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileKey, err)
	}
	return &fileResp, nil
}

// GetFileNodes retrieves the subtrees rooted at the given node ids.
// Ids that do not exist come back as nil entries in NodesResponse.Nodes.
func (c *Client) GetFileNodes(ctx context.Context, fileKey string, nodeIDs []string) (*NodesResponse, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(nodeIDs, ","))
	endpoint := fmt.Sprintf("%s/files/%s/nodes?%s", c.baseURL, url.PathEscape(fileKey), q.Encode())

	var nodesResp NodesResponse
	if err := c.fetch.GetJSON(ctx, endpoint, c.apiHeaders(), &nodesResp); err != nil {
		return nil, fmt.Errorf("get nodes of %s: %w", fileKey, err)
	}
	return &nodesResp, nil
}

// GetImages asks the rendering endpoint for download URLs of the given nodes.
// Nodes that cannot be rendered are absent or null in the returned map.
func (c *Client) GetImages(ctx context.Context, fileKey string, nodeIDs []string, params ImageParams) (*ImagesResponse, error) {
	format := params.Format
	if format == "" {
		format = "svg"
	}

	q := url.Values{}
	q.Set("ids", strings.Join(nodeIDs, ","))
	q.Set("format", format)
	if format == "svg" {
		q.Set("svg_include_id", boolParam(params.SVGIncludeID))
		q.Set("svg_simplify_stroke", boolParam(params.SVGSimplifyStroke))
		q.Set("svg_outline_text", boolParam(params.SVGOutlineText))
	}
	q.Set("use_relative_bounds", boolParam(params.UseRelativeBounds))
	endpoint := fmt.Sprintf("%s/images/%s?%s", c.baseURL, url.PathEscape(fileKey), q.Encode())

	var imgResp ImagesResponse
	if err := c.fetch.GetJSON(ctx, endpoint, c.apiHeaders(), &imgResp); err != nil {
		return nil, fmt.Errorf("get images of %s: %w", fileKey, err)
	}
	if imgResp.Err != nil && *imgResp.Err != "" {
		return nil, fmt.Errorf("%w: %s", ErrRender, *imgResp.Err)
	}
	return &imgResp, nil
}

// Download fetches a rendered file. Render URLs are pre-signed, so the
// access token is not sent.
func (c *Client) Download(ctx context.Context, renderURL string) ([]byte, error) {
	data, err := c.fetch.GetBytes(ctx, renderURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return data, nil
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
