// Package client is the Go counterpart of the browser front end: a typed
// API client over the REST contract plus the dashboard state model the
// screens are built on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Phabs974/ListePCMontage/models"
)

// genericErrorMessage is shown when the server did not provide a usable
// detail message
const genericErrorMessage = "Erreur API"

// APIError is the single failure type every call surfaces: one
// human-readable message, no status codes, no taxonomy.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// TokenResponse is the response body of POST /auth/login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// OrderDraft is the new-order form
type OrderDraft struct {
	InvoiceNumber string    `json:"invoice_number"`
	Store         *string   `json:"store,omitempty"`
	ClientName    string    `json:"client_name"`
	ProductName   string    `json:"product_name"`
	SoldAt        time.Time `json:"sold_at"`
}

// UserDraft is the new-user form
type UserDraft struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// ListOrdersOptions are the order list filters
type ListOrdersOptions struct {
	View  models.View
	Query string
}

// Client calls the REST API, attaching the session token to every request
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New creates an API client against the given base URL
func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		session:    session,
	}
}

// Session returns the session store backing this client
func (c *Client) Session() *Session {
	return c.session
}

// Login verifies credentials and stores the returned token in the session
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var token TokenResponse
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, payload, &token); err != nil {
		return nil, err
	}
	if err := c.session.SetToken(token.AccessToken); err != nil {
		return nil, err
	}
	return &token, nil
}

// Logout clears the stored token
func (c *Client) Logout() error {
	return c.session.Clear()
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LoadUser fetches the identity behind the stored token. Any failure
// clears the token: this is the one place session expiry is detected.
func (c *Client) LoadUser(ctx context.Context) (*models.User, error) {
	user, err := c.Me(ctx)
	if err != nil {
		_ = c.session.Clear()
		return nil, err
	}
	return user, nil
}

// ListOrders returns the orders matching the filters, newest sale first
func (c *Client) ListOrders(ctx context.Context, opts ListOrdersOptions) ([]models.Order, error) {
	query := url.Values{}
	if opts.View != "" {
		query.Set("view", string(opts.View))
	}
	if opts.Query != "" {
		query.Set("q", opts.Query)
	}

	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder records a new sale
func (c *Client) CreateOrder(ctx context.Context, draft OrderDraft) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, draft, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder sends a partial update. A nil value in the patch clears the
// field (only status is nullable).
func (c *Client) UpdateOrder(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+id.String(), nil, patch, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder removes an order
func (c *Client) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/orders/"+id.String(), nil, nil, nil)
}

// ImportInvoice uploads an invoice document for parsing
func (c *Client) ImportInvoice(ctx context.Context, filename string, content io.Reader) (*models.ImportResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &APIError{Message: genericErrorMessage}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &APIError{Message: genericErrorMessage}
	}
	if err := writer.Close(); err != nil {
		return nil, &APIError{Message: genericErrorMessage}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/import/invoice", &body)
	if err != nil {
		return nil, &APIError{Message: genericErrorMessage}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result models.ImportResult
	if err := c.send(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListUsers returns every account (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account (admin only)
func (c *Client) CreateUser(ctx context.Context, draft UserDraft) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, draft, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser sends a partial account update (admin only)
func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPatch, "/users/"+id.String(), nil, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account (admin only)
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/users/"+id.String(), nil, nil, nil)
}

// do performs one best-effort JSON round trip. No retries, no caching.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: genericErrorMessage}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &APIError{Message: genericErrorMessage}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send executes the request, attaches the bearer token and normalizes every
// failure into a single *APIError
func (c *Client) send(req *http.Request, out interface{}) error {
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: genericErrorMessage}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Message: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: genericErrorMessage}
	}
	return nil
}

// errorMessage extracts the detail field from an error body, falling back
// to the generic message
func errorMessage(body io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload.Detail == "" {
		return genericErrorMessage
	}
	return payload.Detail
}
