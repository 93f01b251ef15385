package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Response formats accepted by the pincode API.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Page is one decoded page of the pincode API.
type Page struct {
	// Records holds one entry per usable raw entry, keyed by lower-cased field name.
	Records []map[string]string
	// Raw counts entries in the response, including ones that were not objects.
	Raw int
}

// PincodeAPIClient fetches pages of the government pincode resource.
type PincodeAPIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	format  string
}

// NewPincodeAPIClient creates a client for baseURL. client carries the
// per-request timeout.
func NewPincodeAPIClient(client *http.Client, baseURL, apiKey, format string) *PincodeAPIClient {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	return &PincodeAPIClient{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		format:  format,
	}
}

// PageURL returns the request URL for one page.
func (c *PincodeAPIClient) PageURL(offset, limit int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid pincode API url: %v", ErrMissingConfig, err)
	}
	q := u.Query()
	q.Set("api-key", c.apiKey)
	q.Set("format", c.format)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage requests one page. A transport error, a non-success status or
// an undecodable body is returned as an error; the attempt is always filled.
func (c *PincodeAPIClient) FetchPage(ctx context.Context, offset, limit int) (Page, Attempt, error) {
	pageURL, err := c.PageURL(offset, limit)
	attempt := Attempt{Source: SourcePincodesAPI, URL: pageURL}
	if err != nil {
		attempt.Err = err
		return Page{}, attempt, err
	}

	res, err := get(ctx, c.client, pageURL, nil)
	if err != nil {
		attempt.Err = err
		return Page{}, attempt, fmt.Errorf("request at offset %d: %w", offset, err)
	}
	attempt.Status = res.status
	attempt.BodySnippet = snippet(res.body)

	if !res.ok() {
		attempt.Err = fmt.Errorf("%w: status %d at offset %d", ErrUpstream, res.status, offset)
		return Page{}, attempt, attempt.Err
	}

	var page Page
	if c.format == FormatCSV || res.hasContentType("text/csv") {
		page, err = decodeCSVPage(res.body)
	} else {
		page, err = decodeJSONPage(res.body)
	}
	if err != nil {
		attempt.Err = fmt.Errorf("%w: offset %d: %v", ErrUpstream, offset, err)
		return Page{}, attempt, attempt.Err
	}
	return page, attempt, nil
}

func decodeCSVPage(body []byte) (Page, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Page{}, nil
	}
	records, err := newCSVRecords(bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}

	var page Page
	for {
		record, err := records.Next()
		if errors.Is(err, io.EOF) {
			return page, nil
		}
		page.Raw++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return Page{}, err
		}
		page.Records = append(page.Records, record)
	}
}

// decodeJSONPage accepts a top-level array or an object carrying the entries
// under "records".
func decodeJSONPage(body []byte) (Page, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Page{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return Page{}, fmt.Errorf("decode json: %w", err)
	}

	var entries []interface{}
	switch v := payload.(type) {
	case nil:
		return Page{}, nil
	case []interface{}:
		entries = v
	case map[string]interface{}:
		list, ok := v["records"].([]interface{})
		if !ok {
			return Page{}, errors.New(`json object has no "records" array`)
		}
		entries = list
	default:
		return Page{}, fmt.Errorf("unexpected json payload %T", payload)
	}

	page := Page{Raw: len(entries)}
	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		record := make(map[string]string, len(obj))
		for key, value := range obj {
			if s, ok := stringify(value); ok {
				record[strings.ToLower(strings.TrimSpace(key))] = s
			}
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}

func stringify(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
