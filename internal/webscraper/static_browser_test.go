package webscraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticBrowser_AnchorHrefs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
		case "/docs/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><body>
				<a href="intro">Intro</a>
				<a href="/about#team">About</a>
				<a>no href</a>
				<a href="https://example.com/x">External</a>
			</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	browser := NewStaticBrowser("")
	defer browser.Close()

	page, err := browser.OpenPage(context.Background())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto(context.Background(), srv.URL+"/old", time.Second))
	hrefs, err := page.AnchorHrefs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/docs/intro",
		srv.URL + "/about#team",
		"",
		"https://example.com/x",
	}, hrefs)
}

func TestStaticBrowser_BaseHref(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><base href="/v2/"></head><body><a href="guide">Guide</a></body></html>`)
	}))
	defer srv.Close()

	page, err := NewStaticBrowser("").OpenPage(context.Background())
	require.NoError(t, err)

	require.NoError(t, page.Goto(context.Background(), srv.URL+"/index.html", time.Second))
	hrefs, err := page.AnchorHrefs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/v2/guide"}, hrefs)
}

func TestStaticBrowser_ErrorStatusStillRenders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<a href="/home">home</a>`)
	}))
	defer srv.Close()

	page, err := NewStaticBrowser("").OpenPage(context.Background())
	require.NoError(t, err)

	require.NoError(t, page.Goto(context.Background(), srv.URL+"/nope", time.Second))
	hrefs, err := page.AnchorHrefs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/home"}, hrefs)
}

func TestStaticBrowser_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	page, err := NewStaticBrowser("").OpenPage(context.Background())
	require.NoError(t, err)

	err = page.Goto(context.Background(), srv.URL, 50*time.Millisecond)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNavigationTimeout))
	assert.Equal(t, ClassTimeout, failureClass(err))
}

func TestStaticBrowser_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	page, err := NewStaticBrowser("").OpenPage(context.Background())
	require.NoError(t, err)

	err = page.Goto(context.Background(), addr, time.Second)

	require.Error(t, err)
	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "ConnectionError", navErr.Class)
}

func TestStaticBrowser_AnchorsBeforeGoto(t *testing.T) {
	t.Parallel()

	page, err := NewStaticBrowser("").OpenPage(context.Background())
	require.NoError(t, err)

	_, err = page.AnchorHrefs(context.Background())
	assert.Error(t, err)
}
