// Package crm looks up active lead counts for parcels against the CRM's
// lead search API. Enrichment is strictly optional: any failure degrades the
// single record it was for and the batch keeps going.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"landfolio/server/internal/models"
)

// ErrUnauthorized marks an API-key rejection so callers can distinguish a
// bad credential from a transient failure in their logs.
var ErrUnauthorized = errors.New("crm: unauthorized")

// ExcludedLeadStatuses are lead statuses that never count as active
// interest in a parcel.
var ExcludedLeadStatuses = []string{
	"Dead",
	"Disqualified",
	"Do Not Contact",
	"Duplicate",
	"Sold - Closed",
}

// Client is a thin wrapper over the CRM lead search endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type leadSearchResponse struct {
	Data []struct {
		ID          string `json:"id"`
		StatusLabel string `json:"status_label"`
	} `json:"data"`
}

// LeadCount returns the number of active, non-excluded leads referencing
// the property. Several query phrasings are tried in sequence; the first
// one with any results wins. No results on every phrasing is a plain zero.
func (c *Client) LeadCount(ctx context.Context, p *models.Property) (int, error) {
	for _, query := range queryPhrasings(p) {
		leads, err := c.searchLeads(ctx, query)
		if err != nil {
			return 0, err
		}
		if len(leads.Data) == 0 {
			continue
		}

		count := 0
		for _, lead := range leads.Data {
			if !excludedStatus(lead.StatusLabel) {
				count++
			}
		}
		c.logger.WithFields(logrus.Fields{
			"property": p.ID,
			"query":    query,
			"leads":    count,
		}).Debug("Counted active leads")
		return count, nil
	}
	return 0, nil
}

// queryPhrasings builds the search attempts for a property from whichever
// identifying fields it carries, most specific first.
func queryPhrasings(p *models.Property) []string {
	var queries []string
	if p.ParcelNumber != "" {
		queries = append(queries, p.ParcelNumber)
	}
	if p.DisplayName != "" {
		queries = append(queries, p.DisplayName)
		if p.County != "" && p.County != models.UnknownCounty {
			queries = append(queries, fmt.Sprintf("%s %s", p.DisplayName, p.County))
		}
	}
	if p.StreetAddress != "" {
		queries = append(queries, p.StreetAddress)
	}
	if len(queries) == 0 && p.ID != "" {
		queries = append(queries, p.ID)
	}
	return queries
}

func (c *Client) searchLeads(ctx context.Context, query string) (*leadSearchResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/lead/?%s", c.baseURL, url.Values{
		"query": []string{query},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead search request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lead search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lead search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lead search response: %w", err)
	}

	var result leadSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse lead search response: %w", err)
	}
	return &result, nil
}

func excludedStatus(status string) bool {
	for _, excluded := range ExcludedLeadStatuses {
		if strings.EqualFold(status, excluded) {
			return true
		}
	}
	return false
}
