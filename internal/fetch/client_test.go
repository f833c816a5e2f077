package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return New(Config{
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		MaxConcurrency: 4,
		UserAgent:      "test-agent",
	})
}

func TestFetch_SuccessFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "test-agent")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := testClient()
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestFetch_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient()
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetch_404DoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient()
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetch_ExhaustsRetriesOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient()
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var te *TransientError
	assert.ErrorAs(t, err, &te)
}

func TestFetchOrArchive_FallsBackToZipOn404(t *testing.T) {
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	fw, err := zw.Create("20251113rt.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Time Stamp,Name,LBMP\n11/13/2025 00:00:00,WEST,42.10\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	mux := http.NewServeMux()
	mux.HandleFunc("/direct.csv", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/archive.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBuf.Bytes())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient()
	date := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)
	body, usedURL, err := c.FetchOrArchive(context.Background(), "RT-LBMP", srv.URL+"/direct.csv", srv.URL+"/archive.zip", date, "rtlbmp")
	require.NoError(t, err)
	assert.Contains(t, string(body), "WEST,42.10")
	assert.Equal(t, srv.URL+"/archive.zip", usedURL)
}

func TestFetchOrArchive_NoArchiveDefinedPropagatesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient()
	_, _, err := c.FetchOrArchive(context.Background(), "SNAP", srv.URL, "", time.Now(), "stem")
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}
