package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// UploadCardRequest carries a new card and its image for upload.
type UploadCardRequest struct {
	CardName       string
	Rarity         string
	PointWorth     int
	Quantity       int
	DateGotInStock string

	// ImageName is the filename reported in the multipart form;
	// Image is the file content.
	ImageName string
	Image     io.Reader

	// CollectionID scopes the upload to a collection's metadata id.
	// Empty targets the default collection.
	CollectionID string
}

// validate rejects bad uploads before any bytes move.
func (r *UploadCardRequest) validate() error {
	if r.CardName == "" {
		return &ValidationError{Field: "card_name", Message: "must not be empty"}
	}
	if r.Rarity == "" {
		return &ValidationError{Field: "rarity", Message: "must not be empty"}
	}
	if r.PointWorth < 0 {
		return &ValidationError{Field: "point_worth", Message: "must be a non-negative integer"}
	}
	if r.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must be a non-negative integer"}
	}
	if _, err := time.Parse(time.DateOnly, r.DateGotInStock); err != nil {
		return &ValidationError{Field: "date_got_in_stock", Message: "must be a YYYY-MM-DD date"}
	}
	if r.Image == nil {
		return &ValidationError{Field: "image_file", Message: "must be provided"}
	}
	return nil
}

// UploadCard submits a new card with its image as a multipart form.
// The service keys cards by name, so uploading a name that already
// exists reports IsConflict.
func (c *Client) UploadCard(ctx context.Context, req UploadCardRequest) (*gacha.Card, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	imageName := req.ImageName
	if imageName == "" {
		imageName = "card.png"
	}
	part, err := form.CreateFormFile("image_file", filepath.Base(imageName))
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, req.Image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	fields := map[string]string{
		"card_name":         req.CardName,
		"rarity":            req.Rarity,
		"point_worth":       strconv.Itoa(req.PointWorth),
		"quantity":          strconv.Itoa(req.Quantity),
		"date_got_in_stock": req.DateGotInStock,
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	reqURL := c.baseURL + "/storage/upload_card"
	if req.CollectionID != "" {
		reqURL += "?collection_metadata_id=" + url.QueryEscape(req.CollectionID)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to upload card %s: %w", req.CardName, &RequestError{URL: reqURL, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	var card gacha.Card
	if err := c.handleResponse(resp, reqURL, &card); err != nil {
		return nil, fmt.Errorf("failed to upload card %s: %w", req.CardName, err)
	}

	return &card, nil
}
