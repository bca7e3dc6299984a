package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// ListPacks fetches every card pack known to the service.
func (c *Client) ListPacks(ctx context.Context) ([]gacha.Pack, error) {
	reqURL := c.baseURL + "/packs/packs_collection"

	var packs []gacha.Pack
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &packs); err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}

	return packs, nil
}

// GetPack fetches a single pack by id.
func (c *Client) GetPack(ctx context.Context, packID string) (*gacha.Pack, error) {
	if packID == "" {
		return nil, &ValidationError{Field: "pack id", Message: "must not be empty"}
	}

	reqURL := c.baseURL + "/packs/" + url.PathEscape(packID)

	var pack gacha.Pack
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &pack); err != nil {
		return nil, fmt.Errorf("failed to get pack %s: %w", packID, err)
	}

	return &pack, nil
}

// CreatePackRequest carries the fields for registering a new pack.
type CreatePackRequest struct {
	Name         string
	Description  string
	CollectionID string
	Price        int
}

// CreatePack registers a pack in a collection and returns the id the
// service assigned to it. The wire is a form post, not JSON.
func (c *Client) CreatePack(ctx context.Context, req CreatePackRequest) (string, error) {
	if req.Name == "" {
		return "", &ValidationError{Field: "pack_name", Message: "must not be empty"}
	}
	if req.CollectionID == "" {
		return "", &ValidationError{Field: "collection_id", Message: "must not be empty"}
	}
	if req.Price < 0 {
		return "", &ValidationError{Field: "price", Message: "must not be negative"}
	}

	form := url.Values{}
	form.Set("pack_name", req.Name)
	form.Set("collection_id", req.CollectionID)
	form.Set("price", strconv.Itoa(req.Price))
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := c.baseURL + "/packs/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to create pack %s: %w", req.Name, &RequestError{URL: reqURL, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	var created struct {
		PackID string `json:"pack_id"`
	}
	if err := c.handleResponse(resp, reqURL, &created); err != nil {
		return "", fmt.Errorf("failed to create pack %s: %w", req.Name, err)
	}

	return created.PackID, nil
}

// PackCards lists the cards currently assigned to a pack within a
// collection.
func (c *Client) PackCards(ctx context.Context, collectionID, packID string) ([]gacha.Card, error) {
	if collectionID == "" || packID == "" {
		return nil, &ValidationError{Field: "pack", Message: "collection and pack ids must not be empty"}
	}

	reqURL := c.baseURL + "/packs/" + url.PathEscape(collectionID) + "/" + url.PathEscape(packID) + "/cards"

	var cards []gacha.Card
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &cards); err != nil {
		return nil, fmt.Errorf("failed to list cards for pack %s: %w", packID, err)
	}

	return cards, nil
}

// SetPackActive toggles whether a pack is offered to players.
func (c *Client) SetPackActive(ctx context.Context, collectionID, packID string, active bool) error {
	if collectionID == "" || packID == "" {
		return &ValidationError{Field: "pack", Message: "collection and pack ids must not be empty"}
	}

	action := "inactivate"
	if active {
		action = "activate"
	}
	reqURL := c.baseURL + "/packs/" + url.PathEscape(collectionID) + "/" + url.PathEscape(packID) + "/" + action

	if err := c.doRequest(ctx, http.MethodPatch, reqURL, nil, nil); err != nil {
		return fmt.Errorf("failed to %s pack %s: %w", action, packID, err)
	}

	return nil
}
