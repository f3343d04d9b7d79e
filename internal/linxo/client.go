// Package linxo provides a typed client for the Linxo account aggregation API.
package linxo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Veraticus/linxo/internal/model"
)

// APIVersion is the API revision every resource path is prefixed with.
const APIVersion = "v2.1"

// maxErrorBody bounds how much of a failed response is kept in RequestFailedError.
const maxErrorBody = 512

// Client performs authenticated GET requests against the Linxo API.
// Every call is a single attempt; callers own retries and token refresh.
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	baseURL     string
	accessToken string
	userID      string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserID sets the user filter sent with connection and account listings.
func WithUserID(userID string) ClientOption {
	return func(c *Client) {
		c.userID = userID
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, accessToken string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("linxo API base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid linxo API base URL: %w", err)
	}
	if accessToken == "" {
		return nil, fmt.Errorf("linxo access token is required")
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "linxo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UserID returns the user filter bound to this client.
func (c *Client) UserID() string {
	return c.userID
}

// Get fetches path (relative to the versioned API root) and decodes the JSON body.
// Numbers are decoded as json.Number so amounts keep their exact decimal form.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (any, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	fullPath := "/" + APIVersion + "/" + strings.TrimLeft(path, "/")
	target := c.baseURL + fullPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Requesting Linxo resource", "path", fullPath, "query", query.Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: http.MethodGet, URL: fullPath, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: http.MethodGet, URL: fullPath, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("Linxo request failed", "path", fullPath, "status", resp.StatusCode)
		return nil, &RequestFailedError{
			StatusCode: resp.StatusCode,
			Path:       fullPath,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &MalformedResponseError{Path: fullPath, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedResponseError{Path: fullPath, Err: fmt.Errorf("unexpected data after JSON value")}
	}

	return payload, nil
}

// GetUser fetches the owner of the access token.
func (c *Client) GetUser(ctx context.Context) (model.User, error) {
	rec, err := c.getObject(ctx, "/users/me", nil)
	if err != nil {
		return model.User{}, err
	}
	return MapUser(rec)
}

// GetConnections lists the bank connections of the bound user.
func (c *Client) GetConnections(ctx context.Context) ([]model.Connection, error) {
	recs, err := c.getList(ctx, "/connections", c.userQuery(), "connections")
	if err != nil {
		return nil, err
	}

	connections := make([]model.Connection, 0, len(recs))
	for i, rec := range recs {
		conn, err := MapConnection(rec)
		if err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
		connections = append(connections, conn)
	}

	c.logger.Debug("Fetched connections", "count", len(connections))
	return connections, nil
}

// GetConnection fetches one connection by id.
func (c *Client) GetConnection(ctx context.Context, id string) (model.Connection, error) {
	rec, err := c.getObject(ctx, "/connections/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Connection{}, err
	}
	return MapConnection(rec)
}

// GetAccounts lists the accounts of the bound user.
func (c *Client) GetAccounts(ctx context.Context) ([]model.Account, error) {
	recs, err := c.getList(ctx, "/accounts", c.userQuery(), "accounts")
	if err != nil {
		return nil, err
	}

	accounts := make([]model.Account, 0, len(recs))
	for i, rec := range recs {
		account, err := MapAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		accounts = append(accounts, account)
	}

	c.logger.Debug("Fetched accounts", "count", len(accounts))
	return accounts, nil
}

// GetAccount fetches one account by id.
func (c *Client) GetAccount(ctx context.Context, id string) (model.Account, error) {
	rec, err := c.getObject(ctx, "/accounts/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Account{}, err
	}
	return MapAccount(rec)
}

// GetTransactionsPage fetches one page of an account's transactions. Pages
// start at 1. startDate and endDate are optional and inclusive; they are sent
// as the start and end of day in the reference timezone.
func (c *Client) GetTransactionsPage(ctx context.Context, accountID string, page int, startDate, endDate *civil.Date, limit int) ([]model.Transaction, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be positive, got %d", page)
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := TransactionsQuery(accountID, page, startDate, endDate, limit)
	recs, err := c.getList(ctx, "/transactions", query, "transactions")
	if err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0, len(recs))
	for i, rec := range recs {
		tx, err := MapTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		transactions = append(transactions, tx)
	}

	c.logger.Debug("Fetched transaction page",
		"account_id", accountID,
		"page", page,
		"count", len(transactions))

	return transactions, nil
}

// Transactions returns an iterator over every transaction of accountID in the
// optional date range.
func (c *Client) Transactions(accountID string, startDate, endDate *civil.Date) *TransactionIterator {
	return NewTransactionIterator(c, accountID, startDate, endDate)
}

// TransactionsQuery builds the /transactions query string.
func TransactionsQuery(accountID string, page int, startDate, endDate *civil.Date, limit int) url.Values {
	query := url.Values{}
	query["account_ids"] = []string{accountID}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if startDate != nil {
		query.Set("start_date", StartOfDay(*startDate).Format(time.RFC3339))
	}
	if endDate != nil {
		query.Set("end_date", EndOfDay(*endDate).Format(time.RFC3339))
	}
	return query
}

// StartOfDay is midnight of d in the reference timezone.
func StartOfDay(d civil.Date) time.Time {
	return d.In(ReferenceLocation)
}

// EndOfDay is the last second of d in the reference timezone.
func EndOfDay(d civil.Date) time.Time {
	return d.AddDays(1).In(ReferenceLocation).Add(-time.Second)
}

func (c *Client) userQuery() url.Values {
	if c.userID == "" {
		return nil
	}
	return url.Values{"user_id": []string{c.userID}}
}

func (c *Client) getObject(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	payload, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	rec, ok := payload.(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{
			Path: "/" + APIVersion + path,
			Err:  fmt.Errorf("expected JSON object, got %s", jsonKind(payload)),
		}
	}
	return rec, nil
}

// getList unwraps the array stored under key in the response envelope.
func (c *Client) getList(ctx context.Context, path string, query url.Values, key string) ([]map[string]any, error) {
	envelope, err := c.getObject(ctx, path, query)
	if err != nil {
		return nil, err
	}

	fullPath := "/" + APIVersion + path
	raw, ok := envelope[key]
	if !ok {
		return nil, &MalformedResponseError{Path: fullPath, Err: fmt.Errorf("missing %q array", key)}
	}
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &MalformedResponseError{Path: fullPath, Err: fmt.Errorf("%q is %s, not an array", key, jsonKind(raw))}
	}

	recs := make([]map[string]any, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, &MalformedResponseError{Path: fullPath, Err: fmt.Errorf("%s[%d] is %s, not an object", key, i, jsonKind(item))}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure Client implements TransactionPager.
var _ TransactionPager = (*Client)(nil)
