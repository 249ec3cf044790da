package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const sheetsApiBase = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetsClient talks to the Google Sheets v4 REST api.
type SheetsClient struct {
	http    *HttpClient
	apiBase string
}

type ValueRange struct {
	Range          string          `json:"range,omitempty"`
	MajorDimension string          `json:"majorDimension,omitempty"`
	Values         [][]interface{} `json:"values"`
}

func NewSheetsClient(httpClient *HttpClient) *SheetsClient {
	return &SheetsClient{http: httpClient, apiBase: sheetsApiBase}
}

// NewSheetsClientWithBase is used by tests to point the client at a fake api.
func NewSheetsClientWithBase(httpClient *HttpClient, apiBase string) *SheetsClient {
	return &SheetsClient{http: httpClient, apiBase: strings.TrimRight(apiBase, "/")}
}

func (c *SheetsClient) valuesUrl(spreadsheetId, rng, suffix string) string {
	return fmt.Sprintf("%s/%s/values/%s%s", c.apiBase, url.PathEscape(spreadsheetId), url.PathEscape(rng), suffix)
}

func (c *SheetsClient) GetValues(ctx context.Context, spreadsheetId, rng string) (*ValueRange, error) {
	var vr ValueRange
	if err := c.http.GetJSON(ctx, c.valuesUrl(spreadsheetId, rng, ""), &vr); err != nil {
		return nil, err
	}
	return &vr, nil
}

// UpdateValues overwrites rng with values, starting at its top left cell.
func (c *SheetsClient) UpdateValues(ctx context.Context, spreadsheetId, rng string, values [][]interface{}) error {
	uri := c.valuesUrl(spreadsheetId, rng, "?valueInputOption=RAW")
	return c.http.SendJSON(ctx, http.MethodPut, uri, ValueRange{Range: rng, MajorDimension: "ROWS", Values: values}, nil)
}

// ClearValues empties rng, keeping formatting.
func (c *SheetsClient) ClearValues(ctx context.Context, spreadsheetId, rng string) error {
	return c.http.SendJSON(ctx, http.MethodPost, c.valuesUrl(spreadsheetId, rng, ":clear"), struct{}{}, nil)
}
