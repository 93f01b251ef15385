package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stwalsh4118/laundry/api/internal/logger"
)

// bodySnippetLimit bounds the response excerpt kept for diagnostics.
const bodySnippetLimit = 200

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 64 << 20

// Attempt records one request against a remote source.
type Attempt struct {
	Err         error
	Source      string
	URL         string
	BodySnippet string
	Status      int
}

// Fields returns the attempt as structured log fields.
func (a Attempt) Fields() logger.Fields {
	fields := logger.Fields{
		"source":       a.Source,
		"url":          a.URL,
		"status":       a.Status,
		"body_snippet": a.BodySnippet,
	}
	if a.Err != nil {
		fields["error"] = a.Err.Error()
	}
	return fields
}

func snippet(body []byte) string {
	if len(body) > bodySnippetLimit {
		body = body[:bodySnippetLimit]
	}
	return string(body)
}

type response struct {
	contentType string
	body        []byte
	status      int
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) hasContentType(want string) bool {
	return strings.Contains(strings.ToLower(r.contentType), want)
}

// get performs a GET and reads the whole body. Transport failures are
// returned as errors; HTTP statuses are left to the caller.
func get(ctx context.Context, client *http.Client, url string, header http.Header) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}

	return response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}
