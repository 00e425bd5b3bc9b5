// Package client is a typed HTTP client for the power-tools API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"powertools/internal/shared"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.Mutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

// SetToken sets the bearer credential sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er shared.ErrorResponse
		if json.Unmarshal(b, &er) == nil {
			apiErr.Kind, apiErr.Message = er.Error, er.Message
		} else {
			apiErr.Message = string(b)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(b, out)
}

func emailQuery(email string) url.Values { return url.Values{"email": {email}} }

func (c *Client) ListTools(ctx context.Context) ([]shared.Tool, error) {
	var tools []shared.Tool
	err := c.do(ctx, http.MethodGet, "/tools", nil, nil, &tools)
	return tools, err
}

func (c *Client) GetTool(ctx context.Context, id string) (shared.Tool, error) {
	var tool shared.Tool
	err := c.do(ctx, http.MethodGet, "/tools/"+url.PathEscape(id), nil, nil, &tool)
	return tool, err
}

func (c *Client) CreateTool(ctx context.Context, tool shared.Tool) (shared.InsertResult, error) {
	var res shared.InsertResult
	err := c.do(ctx, http.MethodPost, "/tools", nil, tool, &res)
	return res, err
}

func (c *Client) SetToolAvailability(ctx context.Context, id string, available int) (shared.UpdateResult, error) {
	var res shared.UpdateResult
	err := c.do(ctx, http.MethodPut, "/tools/"+url.PathEscape(id), nil, map[string]int{"available": available}, &res)
	return res, err
}

func (c *Client) CreateOrder(ctx context.Context, req shared.CreateOrderRequest) (shared.InsertResult, error) {
	var res shared.InsertResult
	err := c.do(ctx, http.MethodPost, "/orders", nil, req, &res)
	return res, err
}

func (c *Client) CancelOrder(ctx context.Context, id string) (shared.DeleteResult, error) {
	var res shared.DeleteResult
	err := c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil, &res)
	return res, err
}

func (c *Client) ListOrders(ctx context.Context, email string) ([]shared.Order, error) {
	var orders []shared.Order
	err := c.do(ctx, http.MethodGet, "/orders", emailQuery(email), nil, &orders)
	return orders, err
}

func (c *Client) GetOrder(ctx context.Context, id string) (shared.Order, error) {
	var order shared.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &order)
	return order, err
}

func (c *Client) ConfirmPayment(ctx context.Context, orderID string, req shared.ConfirmPaymentRequest) (shared.UpdateResult, error) {
	var res shared.UpdateResult
	err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(orderID), nil, req, &res)
	return res, err
}

func (c *Client) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	var res shared.PaymentIntentResponse
	err := c.do(ctx, http.MethodPost, "/create-payment-intent", nil, shared.PaymentIntentRequest{Price: price}, &res)
	return res.ClientSecret, err
}

func (c *Client) CreateReview(ctx context.Context, review shared.Review) (shared.InsertResult, error) {
	var res shared.InsertResult
	err := c.do(ctx, http.MethodPost, "/reviews", nil, review, &res)
	return res, err
}

func (c *Client) ListReviews(ctx context.Context) ([]shared.Review, error) {
	var reviews []shared.Review
	err := c.do(ctx, http.MethodGet, "/reviews", nil, nil, &reviews)
	return reviews, err
}

func (c *Client) ListUserReviews(ctx context.Context, email string) ([]shared.Review, error) {
	var reviews []shared.Review
	err := c.do(ctx, http.MethodGet, "/userReviews", emailQuery(email), nil, &reviews)
	return reviews, err
}

// UpsertProfile writes the profile for email and keeps the returned token
// for subsequent calls.
func (c *Client) UpsertProfile(ctx context.Context, email string, fields map[string]string) (shared.UpsertProfileResponse, error) {
	var res shared.UpsertProfileResponse
	if fields == nil {
		fields = map[string]string{}
	}
	if err := c.do(ctx, http.MethodPut, "/users", emailQuery(email), fields, &res); err != nil {
		return res, err
	}
	c.SetToken(res.Token)
	return res, nil
}

func (c *Client) GetOwnProfile(ctx context.Context, email string) ([]shared.UserProfile, error) {
	var users []shared.UserProfile
	err := c.do(ctx, http.MethodGet, "/users", emailQuery(email), nil, &users)
	return users, err
}

func (c *Client) ListProfiles(ctx context.Context) ([]shared.UserProfile, error) {
	var users []shared.UserProfile
	err := c.do(ctx, http.MethodGet, "/user", nil, nil, &users)
	return users, err
}

func (c *Client) PromoteAdmin(ctx context.Context, email string) (shared.UpdateResult, error) {
	var res shared.UpdateResult
	err := c.do(ctx, http.MethodPut, "/user/admin/"+url.PathEscape(email), nil, nil, &res)
	return res, err
}

func (c *Client) IsAdmin(ctx context.Context, email string) (bool, error) {
	var res shared.AdminStatusResponse
	err := c.do(ctx, http.MethodGet, "/admin/"+url.PathEscape(email), nil, nil, &res)
	return res.Admin, err
}

func (c *Client) CreateSuggestion(ctx context.Context, s shared.Suggestion) (shared.InsertResult, error) {
	var res shared.InsertResult
	err := c.do(ctx, http.MethodPost, "/suggestions", nil, s, &res)
	return res, err
}
