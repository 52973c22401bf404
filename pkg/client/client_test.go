package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSendsJSON(t *testing.T) {
	var gotMethod, gotContentType, gotAccept, gotAgent, gotCustom, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Trace")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"watch":{"targetPrice":500}}`))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "airprobe-test"})
	defer c.Close()

	resp, err := c.Do(context.Background(), &Request{
		Method:  "POST",
		URL:     srv.URL + "/api/watchlist",
		Headers: map[string]string{"X-Trace": "abc"},
		Body:    map[string]interface{}{"from": "AMM", "targetPrice": 500},
	})
	require.NoError(t, err)

	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "airprobe-test", gotAgent)
	assert.Equal(t, "abc", gotCustom)
	assert.JSONEq(t, `{"from":"AMM","targetPrice":500}`, gotBody)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decoded, err := resp.JSON()
	require.NoError(t, err)
	obj := decoded.(map[string]interface{})
	assert.Equal(t, true, obj["success"])
	assert.Equal(t, 500.0, obj["watch"].(map[string]interface{})["targetPrice"])
}

func TestDoNonSuccessStatusIsAResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Watch not found"}`))
	}))
	defer srv.Close()

	c := New(Options{})
	resp, err := c.Do(context.Background(), &Request{Method: "GET", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Options{Timeout: time.Minute})
	start := time.Now()
	_, err := c.Do(context.Background(), &Request{
		Method:  "GET",
		URL:     srv.URL + "/api/",
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var te *TimeoutError
	require.True(t, errors.As(err, &te), "expected *TimeoutError, got %T: %v", err, err)
	assert.Equal(t, 100*time.Millisecond, te.Timeout)
	assert.Contains(t, err.Error(), "timed out after 100ms")
}

func TestDoConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{})
	_, err := c.Do(context.Background(), &Request{Method: "GET", URL: url + "/api/"})
	require.Error(t, err)

	var te *TimeoutError
	assert.False(t, errors.As(err, &te))
	assert.True(t, strings.HasPrefix(err.Error(), "GET "+url+"/api/: "))
}

func TestResponseJSON(t *testing.T) {
	r := &Response{Body: []byte("<html>oops</html>")}
	_, err := r.JSON()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response JSON")

	empty := &Response{Body: []byte("  ")}
	_, err = empty.JSON()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty body")

	ok := &Response{Body: []byte(`[1, "a"]`)}
	v, err := ok.JSON()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, "a"}, v)
}

func TestResponseText(t *testing.T) {
	r := &Response{Body: []byte("abcdefghij")}
	assert.Equal(t, "abcdefghij", r.Text(0))
	assert.Equal(t, "abcdefghij", r.Text(10))
	assert.Equal(t, "abcd... [truncated]", r.Text(4))
}

func TestNewDefaults(t *testing.T) {
	assert.Equal(t, 30*time.Second, New(Options{}).Timeout())
	assert.Equal(t, 5*time.Second, New(Options{Timeout: 5 * time.Second}).Timeout())
}

func TestResponseTextKeepsRunesWhole(t *testing.T) {
	r := &Response{Body: []byte(strings.Repeat("a", 499) + "✈️ Price Drop Alert")}
	text := r.Text(500)
	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, strings.Repeat("a", 499)+"... [truncated]", text)

	r = &Response{Body: []byte("✈✈")}
	assert.Equal(t, "✈... [truncated]", r.Text(4))
}
