package grid

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

	"backend/models"
)

// Client talks to the tender backend over HTTP and implements TenderAPI,
// AnalyticsAPI and ProductAPI. The session token is sent in the
// Authorization header on every request.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a Client for the given API base URL (no trailing slash)
// and session token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreatePartida adds a budget line and returns the persisted row including
// its id_detalle.
func (c *Client) CreatePartida(ctx context.Context, tenderID int, req models.PartidaRequest) (*models.Partida, error) {
	var row models.Partida
	path := fmt.Sprintf("/tenders/%d/partidas", tenderID)
	if err := c.do(ctx, http.MethodPost, path, req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdatePartida replaces the fields of an existing budget line.
func (c *Client) UpdatePartida(ctx context.Context, tenderID, detailID int, req models.PartidaRequest) (*models.Partida, error) {
	var row models.Partida
	path := fmt.Sprintf("/tenders/%d/partidas/%d", tenderID, detailID)
	if err := c.do(ctx, http.MethodPut, path, req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// DeletePartida removes a budget line.
func (c *Client) DeletePartida(ctx context.Context, tenderID, detailID int) error {
	path := fmt.Sprintf("/tenders/%d/partidas/%d", tenderID, detailID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CheckPriceDeviation compares a candidate sale price against the historical
// average for the material.
func (c *Client) CheckPriceDeviation(ctx context.Context, materialName string, currentPrice float64) (*models.PriceDeviationResult, error) {
	q := url.Values{}
	q.Set("material_name", materialName)
	q.Set("current_price", strconv.FormatFloat(currentPrice, 'f', -1, 64))
	var res models.PriceDeviationResult
	if err := c.do(ctx, http.MethodGet, "/analytics/price-deviation-check?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchProducts returns autocomplete candidates for the query.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]models.ProductoSearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var res []models.ProductoSearchResult
	if err := c.do(ctx, http.MethodGet, "/productos/search?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}
