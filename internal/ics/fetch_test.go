package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetcher_CachesAndRevalidates(t *testing.T) {
	quietLogs(t)
	var broken atomic.Bool
	var conditional atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(crlf(teamCalendar))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "team", URL: srv.URL + "/team.ics"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Equal(t, crlf(teamCalendar), first.Body)

	second, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, first.Body, second.Body)
	require.Equal(t, int32(1), conditional.Load())

	broken.Store(true)
	third, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	require.True(t, third.FromCache)
	require.Equal(t, first.Body, third.Body)
}

func TestFetcher_FetchAllJoinsErrors(t *testing.T) {
	quietLogs(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.ics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(crlf(teamCalendar))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	results, err := f.FetchAll(context.Background(), []Source{
		{ID: "team", URL: srv.URL + "/team.ics"},
		{ID: "missing", URL: srv.URL + "/missing.ics"},
		{ID: "blank"},
	})

	require.Len(t, results, 1)
	require.Equal(t, "team", results[0].Source.ID)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"missing"`)
	require.Contains(t, err.Error(), `"blank"`)
}
