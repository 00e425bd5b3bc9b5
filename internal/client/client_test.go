package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powertools/internal/shared"
)

func TestRequestShape(t *testing.T) {
	var got *http.Request
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"acknowledged":true,"matchedCount":1,"modifiedCount":1,"upsertedCount":0}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	c.SetToken("tok")
	res, err := c.SetToolAvailability(context.Background(), "T 1", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ModifiedCount)

	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/tools/T 1", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{"available": 4.0}, body)
}

func TestUpsertProfileKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a@x.com", r.URL.Query().Get("email"))
		json.NewEncoder(w).Encode(shared.UpsertProfileResponse{
			Result: shared.UpdateResult{Acknowledged: true, UpsertedCount: 1},
			Token:  "fresh",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.UpsertProfile(context.Background(), "a@x.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh", c.Token())
}

func TestErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/orders" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Forbidden","message":"forbidden access"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.ListOrders(context.Background(), "a@x.com")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Forbidden", apiErr.Kind)
	assert.Equal(t, "forbidden access", apiErr.Message)

	_, err = c.ListTools(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}
