package airtable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const contentType = "application/json"

type listResponse struct {
	Records []*Record `json:"records"`
	Offset  string    `json:"offset"`
}

// List fetches all records of a table, following offset pagination until the
// API stops returning a next-page token.
func (c *Client) List(table string) ([]*Record, error) {
	var records []*Record

	offset := ""
	for {
		q := url.Values{}
		if offset != "" {
			q.Set("offset", offset)
		}

		var page listResponse
		if err := c.send(http.MethodGet, c.tableURL(table), q, nil, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}

		records = append(records, page.Records...)

		if page.Offset == "" {
			break
		}

		c.logger.Debug("additional request needed",
			zap.String("table", table),
			zap.Int("records so far", len(records)),
		)
		offset = page.Offset
	}

	return records, nil
}

func (c *Client) Get(table, id string) (*Record, error) {
	var record Record
	if err := c.send(http.MethodGet, c.recordURL(table, id), nil, nil, &record); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}

	return &record, nil
}

func (c *Client) Create(table string, fields map[string]any) (*Record, error) {
	var record Record
	payload := map[string]any{"fields": fields}
	if err := c.send(http.MethodPost, c.tableURL(table), nil, payload, &record); err != nil {
		return nil, fmt.Errorf("create in %s: %w", table, err)
	}

	return &record, nil
}

func (c *Client) Update(table, id string, fields map[string]any) (*Record, error) {
	var record Record
	payload := map[string]any{"fields": fields}
	if err := c.send(http.MethodPatch, c.recordURL(table, id), nil, payload, &record); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", table, id, err)
	}

	return &record, nil
}

func (c *Client) Delete(table, id string) error {
	if err := c.send(http.MethodDelete, c.recordURL(table, id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}

	return nil
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.APIURL, c.baseID, url.PathEscape(table))
}

func (c *Client) recordURL(table, id string) string {
	return fmt.Sprintf("%s/%s", c.tableURL(table), url.PathEscape(id))
}

func (c *Client) send(method, u string, q url.Values, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.ctx, method, u, body)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
