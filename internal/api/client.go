package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hostsgen/internal/host"
	"hostsgen/internal/i18n"
	"hostsgen/internal/model"
	"hostsgen/internal/progress"
	"hostsgen/internal/util"
)

// ErrUnavailable wraps transport failures reaching a remote host.
var ErrUnavailable = errors.New("host unavailable")

const defaultClientTimeout = 10 * time.Second

// Client implements host.API against a remote `serve` instance.
type Client struct {
	base string
	http *http.Client
}

var _ host.API = (*Client)(nil)

// NewClient returns a client for the host at baseURL (scheme optional).
// A nil httpClient uses a client with a short timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base, err := util.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	return &Client{base: base + BasePath, http: httpClient}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var e errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		return fmt.Errorf("host returned HTTP %d", resp.StatusCode)
	}
	switch e.Error {
	case codeJobRunning:
		return host.ErrJobRunning
	case codeBaseMissing:
		return host.ErrBaseMissing
	}
	if e.Details != "" {
		return fmt.Errorf("host returned HTTP %d: %s", resp.StatusCode, e.Details)
	}
	return fmt.Errorf("host returned HTTP %d: %s", resp.StatusCode, e.Error)
}

func (c *Client) StartDownload(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/jobs/download", nil, nil)
}

func (c *Client) StartUpdate(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/jobs/update", nil, nil)
}

func (c *Client) Status(ctx context.Context) (progress.Status, error) {
	var st progress.Status
	err := c.do(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

func (c *Client) SourcesStatus(ctx context.Context) (model.SourcesStatus, error) {
	var st model.SourcesStatus
	err := c.do(ctx, http.MethodGet, "/sources", nil, &st)
	return st, err
}

func (c *Client) Extensions(ctx context.Context) ([]model.Extension, error) {
	var exts []model.Extension
	err := c.do(ctx, http.MethodGet, "/extensions", nil, &exts)
	return exts, err
}

func (c *Client) Generate(ctx context.Context, extensions []string) (model.GenerateResult, error) {
	var res model.GenerateResult
	if extensions == nil {
		extensions = []string{}
	}
	err := c.do(ctx, http.MethodPost, "/hosts", GenerateRequest{Extensions: extensions}, &res)
	return res, err
}

func (c *Client) OutputFiles(ctx context.Context) ([]model.OutputFile, error) {
	var files []model.OutputFile
	err := c.do(ctx, http.MethodGet, "/files", nil, &files)
	return files, err
}

func (c *Client) OpenOutputFolder(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/files/open", nil, nil)
}

func (c *Client) Languages(ctx context.Context) ([]model.Language, error) {
	var langs []model.Language
	err := c.do(ctx, http.MethodGet, "/languages", nil, &langs)
	return langs, err
}

func (c *Client) Strings(ctx context.Context, code string) (i18n.Strings, error) {
	var s i18n.Strings
	err := c.do(ctx, http.MethodGet, "/languages/"+url.PathEscape(code), nil, &s)
	return s, err
}

func (c *Client) History(ctx context.Context, limit int) (model.History, error) {
	var h model.History
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &h)
	return h, err
}
