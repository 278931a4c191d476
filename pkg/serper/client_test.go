package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_ParsesOrganicResults(t *testing.T) {
	var gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		b, _ := json.Marshal(req)
		gotBody = string(b)

		_, _ = w.Write([]byte(`{"organic":[
			{"title":"Acme Law","link":"https://acmelaw.com","snippet":"Trusted counsel"},
			{"title":"No link entry","snippet":"dropped"},
			{"title":"Beta Firm","link":" https://betafirm.com ","snippet":""}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "immigration lawyer", 10)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.JSONEq(t, `{"q":"immigration lawyer","num":10}`, gotBody)

	require.Len(t, results, 2)
	assert.Equal(t, "https://acmelaw.com", results[0].Link)
	assert.Equal(t, "Acme Law", results[0].Title)
	assert.Equal(t, "https://betafirm.com", results[1].Link)
}

func TestSearch_LimitCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"a","link":"https://a.com"},
			{"title":"b","link":"https://b.com"},
			{"title":"c","link":"https://c.com"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NumClamped(t *testing.T) {
	var gotNum float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotNum, _ = req["num"].(float64)
		_, _ = w.Write([]byte(`{"organic":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", 500)
	require.NoError(t, err)
	assert.Equal(t, float64(100), gotNum)
}

func TestSearch_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestSearch_MissingKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API key")
}
