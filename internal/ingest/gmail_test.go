package ingest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/ingest"
)

func TestGmailStreamDripsPaginatedBatchesThroughDriver(t *testing.T) {
	listCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/gmail/v1/users/me/messages":
			listCalls++
			if r.URL.Query().Get("pageToken") == "" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"messages":      []map[string]string{{"id": "m1"}, {"id": "m2"}},
					"nextPageToken": "page2",
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "m3"}},
			})
		case r.URL.Path == "/gmail/v1/users/me/messages/m1":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "m1", "snippet": "hello"})
		case r.URL.Path == "/gmail/v1/users/me/messages/m2":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "m2", "snippet": "world"})
		case r.URL.Path == "/gmail/v1/users/me/messages/m3":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "m3", "snippet": "!"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := ingest.NewRateLimitedClient(1000, 10)
	stream := ingest.NewGmailStream(client, srv.URL, "token")
	sc := ingest.StreamContext{Name: "messages", BatchSize: 50, RetryAttempts: 2, RetryBaseMillis: 1, RetryMaxMillis: 10}
	driver := stream.Driver(sc)

	out := make(chan ingest.Batch, 8)
	errc := make(chan error, 1)
	go func() { errc <- driver.Run(t.Context(), model.Interval{Start: 1, End: 2}, out) }()

	var total int
	for batch := range out {
		total += len(batch.Records)
	}
	require.NoError(t, <-errc)
	require.Equal(t, 3, total)
	require.Equal(t, 2, listCalls)
}

func TestGmailStreamRetriesFailedMessageIDsWithoutReListingPage(t *testing.T) {
	listCalls := 0
	m1Attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/gmail/v1/users/me/messages":
			listCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "m1"}},
			})
		case r.URL.Path == "/gmail/v1/users/me/messages/m1":
			m1Attempts++
			if m1Attempts == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "m1", "snippet": "recovered"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := ingest.NewRateLimitedClient(1000, 10)
	stream := ingest.NewGmailStream(client, srv.URL, "token")
	sc := ingest.StreamContext{Name: "messages", BatchSize: 50, RetryAttempts: 3, RetryBaseMillis: 1, RetryMaxMillis: 10}
	driver := stream.Driver(sc)

	out := make(chan ingest.Batch, 8)
	errc := make(chan error, 1)
	go func() { errc <- driver.Run(t.Context(), model.Interval{Start: 1, End: 2}, out) }()

	var records []ingest.Record
	for batch := range out {
		records = append(records, batch.Records...)
	}
	require.NoError(t, <-errc)
	require.Len(t, records, 1)
	require.Equal(t, 2, m1Attempts)
	require.Equal(t, 1, listCalls, "failed ids must be retried without re-listing the page")
}
