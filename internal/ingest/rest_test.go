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

func TestRESTStreamDripsPaginatedBatchesThroughDriver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"records":     []map[string]any{{"id": "1"}, {"id": "2"}},
				"next_cursor": "c2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{"id": "3"}},
		})
	}))
	defer srv.Close()

	client := ingest.NewRateLimitedClient(1000, 10)
	stream := ingest.NewRESTStream(client, srv.URL, "/v1/items", "token")
	sc := ingest.StreamContext{Name: "items", RetryAttempts: 2, RetryBaseMillis: 1, RetryMaxMillis: 10}
	driver := stream.Driver(sc)

	out := make(chan ingest.Batch, 8)
	errc := make(chan error, 1)
	go func() { errc <- driver.Run(t.Context(), model.Interval{Start: 100, End: 200}, out) }()

	var total int
	for batch := range out {
		total += len(batch.Records)
	}
	require.NoError(t, <-errc)
	require.Equal(t, 3, total)
}

func TestRESTStreamRetriesPageFetchOnTransientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{"id": "1"}},
		})
	}))
	defer srv.Close()

	client := ingest.NewRateLimitedClient(1000, 10)
	stream := ingest.NewRESTStream(client, srv.URL, "/v1/items", "token")
	sc := ingest.StreamContext{Name: "items", RetryAttempts: 3, RetryBaseMillis: 1, RetryMaxMillis: 10}
	driver := stream.Driver(sc)

	out := make(chan ingest.Batch, 8)
	errc := make(chan error, 1)
	go func() { errc <- driver.Run(t.Context(), model.Interval{Start: 100, End: 200}, out) }()

	var total int
	for batch := range out {
		total += len(batch.Records)
	}
	require.NoError(t, <-errc)
	require.Equal(t, 1, total)
	require.Equal(t, 2, attempts)
}
