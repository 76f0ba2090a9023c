package ingest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"onyx.dev/onyx/internal/catalog/model"
)

// RESTRequest is one page request against a generic paginated REST API.
type RESTRequest struct {
	Since  int64
	Cursor string
}

// RESTResponse is one generic paginated REST API page: a record array
// plus an opaque `next_cursor` the provider echoes back.
type RESTResponse struct {
	Records    []map[string]any `json:"records"`
	NextCursor string           `json:"next_cursor"`
}

// RESTStream streams one path of a generic paginated REST API, windowed
// by a `since` query parameter and advanced via the response's opaque
// `next_cursor` field.
type RESTStream struct {
	Client  *RateLimitedClient
	BaseURL string
	Path    string
	Token   string
}

// NewRESTStream returns a RESTStream against path on client.
func NewRESTStream(client *RateLimitedClient, baseURL, path, token string) *RESTStream {
	return &RESTStream{Client: client, BaseURL: baseURL, Path: path, Token: token}
}

// Driver adapts the stream into a StreamDriver the controller can run.
func (s *RESTStream) Driver(sc StreamContext) StreamDriver {
	return NewStreamDriver[RESTRequest, RESTResponse](sc, s)
}

func (s *RESTStream) RequestFactory(_ context.Context, _ StreamContext, interval model.Interval) (RESTRequest, error) {
	return RESTRequest{Since: interval.Start}, nil
}

func (s *RESTStream) Retrieve(ctx context.Context, req RESTRequest) (RESTResponse, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(req.Since, 10))
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}

	httpReq, err := http.NewRequest(http.MethodGet, s.BaseURL+s.Path+"?"+q.Encode(), nil)
	if err != nil {
		return RESTResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.Token)

	var resp RESTResponse
	if err := s.Client.DoJSON(ctx, httpReq, &resp); err != nil {
		return RESTResponse{}, err
	}
	return resp, nil
}

func (s *RESTStream) ExtractRecords(resp RESTResponse) ([]Record, error) {
	records := make([]Record, len(resp.Records))
	for i, r := range resp.Records {
		records[i] = Record(r)
	}
	return records, nil
}

func (s *RESTStream) ExtractCursor(resp RESTResponse) (string, bool) {
	if resp.NextCursor == "" {
		return "", false
	}
	return resp.NextCursor, true
}

func (s *RESTStream) MergeCursor(req RESTRequest, cursor string) (RESTRequest, error) {
	req.Cursor = cursor
	return req, nil
}
