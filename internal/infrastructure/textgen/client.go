package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Generator is the opaque text-generation capability. Output is untrusted free
// text; callers must validate any structure they parse out of it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client posts prompts to an external completion endpoint.
type Client struct {
	http    *fasthttp.Client
	url     string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(url, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    &fasthttp.Client{},
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.url == "" {
		return "", fmt.Errorf("text generation endpoint not configured")
	}

	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.SetBody(payload)

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return "", err
	}
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("text generator returned status %d", resp.StatusCode())
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

var _ Generator = (*Client)(nil)
