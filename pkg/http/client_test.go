package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
)

func TestRetriesServerErrors(t *testing.T) {
	c := qt.New(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClientWithLogger(zap.NewNop())
	resp, err := client.Do(RequestOptions{
		Method:          http.MethodGet,
		URL:             server.URL,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		MaxElapsed:      time.Second,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(atomic.LoadInt32(&calls), qt.Equals, int32(3))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	c := qt.New(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`[{"errorCode":"INVALID_SESSION_ID"}]`))
	}))
	defer server.Close()

	client := NewClientWithLogger(zap.NewNop())
	resp, err := client.Get(context.Background(), server.URL, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusUnauthorized)
	c.Assert(string(resp.Body), qt.Equals, `[{"errorCode":"INVALID_SESSION_ID"}]`)
	c.Assert(atomic.LoadInt32(&calls), qt.Equals, int32(1))
}

func TestPostSendsJSON(t *testing.T) {
	c := qt.New(t)

	var contentType, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithLogger(zap.NewNop())
	_, err := client.Post(context.Background(), server.URL, nil, map[string]string{"subject": "hi"})
	c.Assert(err, qt.IsNil)
	c.Assert(contentType, qt.Equals, "application/json; charset=UTF-8")
	c.Assert(body, qt.Equals, `{"subject":"hi"}`)
}

func TestPostFormSendsFormEncoding(t *testing.T) {
	c := qt.New(t)

	var contentType, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithLogger(zap.NewNop())
	form := url.Values{"grant_type": {"refresh_token"}}
	_, err := client.PostForm(context.Background(), server.URL, form)
	c.Assert(err, qt.IsNil)
	c.Assert(contentType, qt.Equals, "application/x-www-form-urlencoded")
	c.Assert(body, qt.Equals, "grant_type=refresh_token")
}

func TestBuildURL(t *testing.T) {
	c := qt.New(t)

	u, err := BuildURL("https://example.my.salesforce.com", "/services/data/v35.0/query", map[string]string{"q": "SELECT Id FROM Opportunity"})
	c.Assert(err, qt.IsNil)
	c.Assert(u, qt.Equals, "https://example.my.salesforce.com/services/data/v35.0/query?q=SELECT+Id+FROM+Opportunity")
}

func TestResolveURL(t *testing.T) {
	c := qt.New(t)

	u, err := ResolveURL("https://x.salesforce.com/services/data/v35.0", "chatter/feeds/company/feed-items")
	c.Assert(err, qt.IsNil)
	c.Assert(u, qt.Equals, "https://x.salesforce.com/services/data/v35.0/chatter/feeds/company/feed-items")

	// absolute refs pass through
	u, err = ResolveURL("https://x.salesforce.com/services/data/v35.0", "https://elsewhere.example.com/a")
	c.Assert(err, qt.IsNil)
	c.Assert(u, qt.Equals, "https://elsewhere.example.com/a")

	// host-relative refs, like nextPageUrl, resolve against the host
	u, err = ResolveURL("https://x.salesforce.com/services/data/v35.0", "/services/data/v35.0/chatter/feeds/company/feed-items?page=2")
	c.Assert(err, qt.IsNil)
	c.Assert(u, qt.Equals, "https://x.salesforce.com/services/data/v35.0/chatter/feeds/company/feed-items?page=2")
}
