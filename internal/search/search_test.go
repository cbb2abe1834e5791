package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type recorded struct {
	method, path string
	body         string
}

func fakeES(t *testing.T, searchResp string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/":
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = w.Write([]byte(searchResp))
		default:
			_, _ = w.Write([]byte(`{"result":"created"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestClient_IndexAndSearch(t *testing.T) {
	t.Parallel()
	srv, reqs := fakeES(t, `{"hits":{"total":{"value":2},"hits":[{"_source":{"id":5}},{"_source":{"id":2}}]}}`)

	c, err := NewClient(context.Background(), Config{Addresses: []string{srv.URL}, Index: "products"})
	require.NoError(t, err)

	p := &models.Product{ID: 5, Name: "Blue Mug", Description: "ceramic", Price: decimal.RequireFromString("9.99"), StoreID: 1}
	require.NoError(t, c.IndexProduct(context.Background(), p))

	total, ids, err := c.Search(context.Background(), "mug", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint{5, 2}, ids)

	require.NoError(t, c.RemoveProduct(context.Background(), 5))

	var indexReq, searchReq *recorded
	for i := range *reqs {
		r := &(*reqs)[i]
		switch {
		case r.path == "/products/_doc/5" && r.method == http.MethodPut:
			indexReq = r
		case r.path == "/products/_search":
			searchReq = r
		}
	}
	require.NotNil(t, indexReq)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(indexReq.body), &doc))
	assert.Equal(t, "Blue Mug", doc["name"])

	require.NotNil(t, searchReq)
	assert.Contains(t, searchReq.body, `"multi_match"`)
	assert.Contains(t, searchReq.body, `"name^2"`)
	assert.Contains(t, searchReq.body, `"fuzziness":"AUTO"`)
}

func TestClient_SearchError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Config{Addresses: []string{srv.URL}, Index: "products"})
	require.NoError(t, err)

	_, _, err = c.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
}
