package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/domain"
)

// maxErrorBody caps how much of an error response ends up in messages.
const maxErrorBody = 512

// Client talks to the ledger REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. timeout applies to every request.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	resp, err := c.do(ctx, http.MethodGet, userPath(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrUserNotFound
	default:
		return nil, statusError(resp)
	}

	var u domain.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", id, err)
	}
	if u.News == nil {
		u.News = []domain.NewsItem{}
	}
	if u.Features == nil {
		u.Features = []domain.Feature{}
	}
	return &u, nil
}

// UpdateUser sends the whole user document; the API applies the fields it accepts.
func (c *Client) UpdateUser(ctx context.Context, user *domain.User) error {
	body, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", user.ID, err)
	}
	resp, err := c.do(ctx, http.MethodPut, userPath(user.ID), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return fmt.Errorf("%s %s: status %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
	}
	return fmt.Errorf("%s %s: status %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, msg)
}
