package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

const (
	rateLimitDelay = 100 * time.Millisecond // spacing between requests
	userAgent      = "Cardstock/1.0"
)

// Config holds settings for the storage service client.
type Config struct {
	// BaseURL is the root of the storage service, e.g.
	// "http://localhost:8000". Required.
	BaseURL string

	// Timeout for a single request. Zero means no client-side
	// timeout; the caller's context and the transport decide.
	Timeout time.Duration
}

// DefaultConfig returns a client configuration matching the local
// development server.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 0,
	}
}

// Client talks to the gacha storage service. It performs no retries
// and no caching; a failed call is reported to the caller, and
// retrying is the caller's decision.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
}

// New creates a storage service client.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultConfig().BaseURL
	}
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		baseURL:     base,
	}
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListCardsParams selects which page of cards to fetch. Zero values
// fall back to the service defaults.
type ListCardsParams struct {
	Collection string
	Search     string
	SortBy     gacha.SortField
	SortOrder  gacha.SortOrder
	Page       int
	PerPage    int
}

// query encodes the parameters the way the storage service expects.
func (p ListCardsParams) query() url.Values {
	q := url.Values{}
	if p.Collection != "" {
		q.Set("collectionName", p.Collection)
	}
	if p.Search != "" {
		q.Set("search_query", p.Search)
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = gacha.DefaultSortField
	}
	sortOrder := p.SortOrder
	if sortOrder == "" {
		sortOrder = gacha.DefaultSortOrder
	}
	page := p.Page
	if page == 0 {
		page = 1
	}
	perPage := p.PerPage
	if perPage == 0 {
		perPage = gacha.DefaultPerPage
	}

	q.Set("sort_by", string(sortBy))
	q.Set("sort_order", string(sortOrder))
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}

// Pagination is the paging metadata attached to a card listing.
type Pagination struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// ListFilters echoes back the filter parameters the service applied.
type ListFilters struct {
	SortBy      string `json:"sort_by"`
	SortOrder   string `json:"sort_order"`
	SearchQuery string `json:"search_query"`
}

// CardPage is one page of a card listing.
type CardPage struct {
	Cards      []gacha.Card `json:"cards"`
	Pagination Pagination   `json:"pagination"`
	Filters    ListFilters  `json:"filters"`
}

// ListCards fetches one page of cards for the given parameters.
func (c *Client) ListCards(ctx context.Context, params ListCardsParams) (*CardPage, error) {
	reqURL := c.baseURL + "/storage/cards?" + params.query().Encode()

	var page CardPage
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	// A listing without a cards array is unusable even when it
	// decodes cleanly; report it like any other bad body.
	if page.Cards == nil {
		return nil, fmt.Errorf("failed to list cards: %w",
			&DecodeError{URL: reqURL, Err: fmt.Errorf("response has no cards array")})
	}

	return &page, nil
}

type quantityChangeRequest struct {
	QuantityChange int `json:"quantity_change"`
}

// AdjustQuantity applies a relative quantity change to a card.
// Negative deltas are allowed; the service clamps the result at zero
// and is the source of truth for the final value.
func (c *Client) AdjustQuantity(ctx context.Context, cardID string, delta int, collection string) (*gacha.Card, error) {
	if cardID == "" {
		return nil, &ValidationError{Field: "card id", Message: "must not be empty"}
	}

	reqURL := c.cardURL(cardID, "/quantity", collection)

	var card gacha.Card
	if err := c.doRequest(ctx, http.MethodPatch, reqURL, quantityChangeRequest{QuantityChange: delta}, &card); err != nil {
		return nil, fmt.Errorf("failed to adjust quantity for card %s: %w", cardID, err)
	}

	return &card, nil
}

// SetQuantity updates a card's quantity to an absolute value. The
// value must be a non-negative integer; negatives are rejected here
// without a request.
func (c *Client) SetQuantity(ctx context.Context, cardID string, quantity int, collection string) (*gacha.Card, error) {
	if quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be a non-negative integer"}
	}

	patch := gacha.CardPatch{Quantity: &quantity}
	return c.UpdateCard(ctx, cardID, patch, collection)
}

// UpdateCard applies a partial update to a card and returns the
// updated record. An empty patch is rejected client-side; the service
// would answer 400 "No update data provided".
func (c *Client) UpdateCard(ctx context.Context, cardID string, patch gacha.CardPatch, collection string) (*gacha.Card, error) {
	if cardID == "" {
		return nil, &ValidationError{Field: "card id", Message: "must not be empty"}
	}
	if patch.IsEmpty() {
		return nil, &ValidationError{Field: "update", Message: "no fields to update"}
	}
	if patch.PointWorth != nil && *patch.PointWorth < 0 {
		return nil, &ValidationError{Field: "point_worth", Message: "must be a non-negative integer"}
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be a non-negative integer"}
	}

	reqURL := c.cardURL(cardID, "", collection)

	var card gacha.Card
	if err := c.doRequest(ctx, http.MethodPut, reqURL, patch, &card); err != nil {
		return nil, fmt.Errorf("failed to update card %s: %w", cardID, err)
	}

	return &card, nil
}

// DeleteCard removes a card from a collection.
func (c *Client) DeleteCard(ctx context.Context, cardID string, collection string) error {
	if cardID == "" {
		return &ValidationError{Field: "card id", Message: "must not be empty"}
	}

	reqURL := c.cardURL(cardID, "", collection)

	if err := c.doRequest(ctx, http.MethodDelete, reqURL, nil, nil); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}

	return nil
}

// ListCollections fetches the metadata of every collection.
func (c *Client) ListCollections(ctx context.Context) ([]gacha.Collection, error) {
	reqURL := c.baseURL + "/storage/collection-metadata"

	var collections []gacha.Collection
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &collections); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	return collections, nil
}

// GetCollection fetches one collection's metadata by name. A missing
// collection reports IsNotFound.
func (c *Client) GetCollection(ctx context.Context, name string) (*gacha.Collection, error) {
	if name == "" {
		return nil, &ValidationError{Field: "collection name", Message: "must not be empty"}
	}

	reqURL := c.baseURL + "/storage/collection-metadata/" + url.PathEscape(name)

	var collection gacha.Collection
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &collection); err != nil {
		return nil, fmt.Errorf("failed to get collection %s: %w", name, err)
	}

	return &collection, nil
}

// CreateCollection registers a new collection. Names must be unique;
// duplicates report IsConflict.
func (c *Client) CreateCollection(ctx context.Context, collection gacha.Collection) (*gacha.Collection, error) {
	if collection.Name == "" {
		return nil, &ValidationError{Field: "collection name", Message: "must not be empty"}
	}
	if collection.FirestoreCollection == "" {
		return nil, &ValidationError{Field: "firestoreCollection", Message: "must not be empty"}
	}
	if collection.StoragePrefix == "" {
		return nil, &ValidationError{Field: "storagePrefix", Message: "must not be empty"}
	}

	reqURL := c.baseURL + "/storage/collection-metadata"

	var created gacha.Collection
	if err := c.doRequest(ctx, http.MethodPost, reqURL, collection, &created); err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", collection.Name, err)
	}

	return &created, nil
}

// cardURL builds a /storage/cards/{id} URL with an optional suffix
// and collection scope.
func (c *Client) cardURL(cardID, suffix, collection string) string {
	reqURL := c.baseURL + "/storage/cards/" + url.PathEscape(cardID) + suffix
	if collection != "" {
		reqURL += "?collectionName=" + url.QueryEscape(collection)
	}
	return reqURL
}

// doRequest performs one HTTP request with rate limiting. body is
// JSON-encoded when non-nil; the response is decoded into result when
// result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body, result any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{URL: reqURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	return c.handleResponse(resp, reqURL, result)
}

// handleResponse maps the status code and body onto the error
// taxonomy: 2xx decodes into result, anything else becomes an
// APIError carrying the service's detail payload when present.
func (c *Client) handleResponse(resp *http.Response, reqURL string, result any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return &DecodeError{URL: reqURL, Err: err}
		}

		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Detail Detail `json:"detail"`
	}
	if err := json.Unmarshal(respBody, &envelope); err == nil {
		apiErr.Detail = envelope.Detail
	}

	return apiErr
}
