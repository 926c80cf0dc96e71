package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.crossdoc.dev/xschema/provider"
)

func TestRequest_URL_SchemaPrefixTrimmed(t *testing.T) {
	t.Parallel()

	req := provider.Request{SchemaID: "urn:schema:people/1.0", Prefix: "https://keys.example.com/", SchemaPrefix: "urn:schema:"}

	assert.Equal(t, "https://keys.example.com/people/1.0", req.URL())
}

func TestRequest_URL_NoPrefixMatchUsesVerbatimSchemaID(t *testing.T) {
	t.Parallel()

	req := provider.Request{SchemaID: "people/1.0", Prefix: "https://keys.example.com/", SchemaPrefix: "urn:schema:"}

	assert.Equal(t, "https://keys.example.com/people/1.0", req.URL())
}

func TestFetchAll_ParsesURIList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/uri-list", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/uri-list")
		_, _ = w.Write([]byte("# comment\nX\nY\n\n"))
	}))
	defer srv.Close()

	f := provider.New(4)
	results, errs := f.FetchAll(context.Background(), []provider.Request{{SchemaID: "S1", Prefix: srv.URL + "/"}})

	require.Len(t, errs, 1)
	assert.NoError(t, errs[0])
	require.Len(t, results, 1)
	assert.Equal(t, []string{"X", "Y"}, results[0].Values)
}

func TestFetchAll_ParsesCSVFirstColumn(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("X,ignored\nY,ignored\n"))
	}))
	defer srv.Close()

	f := provider.New(4)
	results, errs := f.FetchAll(context.Background(), []provider.Request{{SchemaID: "S1", Prefix: srv.URL + "/", Accept: "text/csv"}})

	require.NoError(t, errs[0])
	assert.Equal(t, []string{"X", "Y"}, results[0].Values)
}

func TestFetchAll_HTTP4xxIsFatalWithoutRetry(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := provider.New(1)
	f.BaseBackoff = time.Millisecond
	_, errs := f.FetchAll(context.Background(), []provider.Request{{SchemaID: "S1", Prefix: srv.URL + "/"}})

	require.Error(t, errs[0])
	assert.ErrorIs(t, errs[0], provider.ErrFetchFailed)
	assert.Equal(t, 1, attempts, "HTTP 4xx must not be retried")
}

func TestFetchAll_RetriesOnServerError(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}
		w.Header().Set("Content-Type", "text/uri-list")
		_, _ = w.Write([]byte("X\n"))
	}))
	defer srv.Close()

	f := provider.New(1)
	f.BaseBackoff = time.Millisecond
	results, errs := f.FetchAll(context.Background(), []provider.Request{{SchemaID: "S1", Prefix: srv.URL + "/"}})

	require.NoError(t, errs[0])
	assert.Equal(t, []string{"X"}, results[0].Values)
	assert.Equal(t, 3, attempts)
}

func TestFetchAll_MultipleRequestsPreserveOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/uri-list")
		_, _ = w.Write([]byte(r.URL.Path[1:] + "\n"))
	}))
	defer srv.Close()

	f := provider.New(4)
	requests := []provider.Request{
		{SchemaID: "a", Prefix: srv.URL + "/"},
		{SchemaID: "b", Prefix: srv.URL + "/"},
		{SchemaID: "c", Prefix: srv.URL + "/"},
	}
	results, errs := f.FetchAll(context.Background(), requests)

	for i, e := range errs {
		require.NoError(t, e, "request %d", i)
	}
	assert.Equal(t, []string{"a"}, results[0].Values)
	assert.Equal(t, []string{"b"}, results[1].Values)
	assert.Equal(t, []string{"c"}, results[2].Values)
}
