package upstream

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
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cepradar/server/internal/models"
)

// ErrDuplicate is returned when the engine answers 409 to a registration.
var ErrDuplicate = errors.New("cep already registered")

// APIError carries a business error surfaced by the engine, with the detail
// text the engine attached to the response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("engine returned %d: %s", e.Status, e.Detail)
}

// Client is a typed HTTP client for the valuation engine's REST API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewClient creates a client for the engine rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListCEPs fetches every registered CEP record.
func (c *Client) ListCEPs(ctx context.Context) ([]models.CEPRecord, error) {
	var records []models.CEPRecord
	if err := c.getJSON(ctx, "/ceps", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type registerRequest struct {
	Cep  string `json:"cep"`
	Tipo string `json:"tipo,omitempty"`
}

// RegisterCEP submits a new CEP for monitoring. The engine answers 409 for a
// code it already tracks, mapped to ErrDuplicate.
func (c *Client) RegisterCEP(ctx context.Context, cep, tipo string) (*models.CEPRecord, error) {
	var record models.CEPRecord
	if err := c.postJSON(ctx, "/ceps", registerRequest{Cep: cep, Tipo: tipo}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// RetryCEP asks the engine to reprocess a failed record and returns the
// refreshed record.
func (c *Client) RetryCEP(ctx context.Context, id int64) (*models.CEPRecord, error) {
	var record models.CEPRecord
	path := fmt.Sprintf("/ceps/%d/retry", id)
	if err := c.postJSON(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteCEP removes a record from monitoring.
func (c *Client) DeleteCEP(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/ceps/%d", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, nil)
}

// SearchAddresses queries the autocomplete endpoint.
func (c *Client) SearchAddresses(ctx context.Context, query string, limit int) ([]models.AddressSuggestion, error) {
	params := url.Values{
		"q":     []string{query},
		"limit": []string{strconv.Itoa(limit)},
	}
	var suggestions []models.AddressSuggestion
	if err := c.getJSON(ctx, "/enderecos", params, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// GetRegionData fetches coordinates and the price summary for a CEP.
func (c *Client) GetRegionData(ctx context.Context, cep string) (*models.RegionData, error) {
	var region models.RegionData
	if err := c.getJSON(ctx, "/dados-regiao/"+cep, nil, &region); err != nil {
		return nil, err
	}
	return &region, nil
}

// ListComparables fetches scraped listings within radius meters of a point.
func (c *Client) ListComparables(ctx context.Context, lat, lon, radius float64) ([]models.Comparable, error) {
	params := url.Values{
		"lat":  []string{strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":  []string{strconv.FormatFloat(lon, 'f', -1, 64)},
		"raio": []string{strconv.FormatFloat(radius, 'f', -1, 64)},
	}
	var comparables []models.Comparable
	if err := c.getJSON(ctx, "/comparaveis", params, &comparables); err != nil {
		return nil, err
	}
	return comparables, nil
}

// ListValuations fetches the full valuation history.
func (c *Client) ListValuations(ctx context.Context) ([]models.Valuation, error) {
	var valuations []models.Valuation
	if err := c.getJSON(ctx, "/avaliacoes", nil, &valuations); err != nil {
		return nil, err
	}
	return valuations, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and decodes a successful JSON response into out.
// Non-2xx responses become ErrDuplicate (409) or *APIError with the engine's
// detail text.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", req.URL.String()).Debug("Engine request failed")
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %s", ErrDuplicate, errorDetail(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorDetail extracts the engine's error text from a response body. The
// engine uses either {"detail": ...} or {"error": ...}.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
