package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if got := r.Header.Get("X-Token"); got != "abc" {
			t.Errorf("X-Token = %q, want %q", got, "abc")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(nil)
	resp := client.Get(context.Background(), server.URL, map[string]string{"X-Token": "abc"}, time.Second)

	if resp.Error != nil {
		t.Fatalf("Get() error = %v", resp.Error)
	}
	if !resp.OK() {
		t.Errorf("OK() = false, want true (status %d)", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestClient_Get_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	resp := NewClient(nil).Get(context.Background(), server.URL, nil, time.Second)

	if resp.Error != nil {
		t.Fatalf("Get() error = %v, want nil for a received response", resp.Error)
	}
	if resp.OK() {
		t.Error("OK() = true, want false for 502")
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", resp.StatusCode)
	}
}

func TestClient_Get_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	resp := NewClient(nil).Get(context.Background(), server.URL, nil, 20*time.Millisecond)

	if resp.Error == nil {
		t.Fatal("Get() error = nil, want timeout error")
	}
	if !strings.Contains(resp.Error.Error(), "request failed") {
		t.Errorf("Error = %q, want to contain 'request failed'", resp.Error)
	}
}

func TestClient_Get_InvalidURL(t *testing.T) {
	resp := NewClient(nil).Get(context.Background(), "://bad", nil, time.Second)
	if resp.Error == nil {
		t.Fatal("Get() error = nil, want error for invalid URL")
	}
	if !strings.Contains(resp.Error.Error(), "failed to create request") {
		t.Errorf("Error = %q, want to contain 'failed to create request'", resp.Error)
	}
}

// TestClient_Get_BodyLimit verifies the response body is capped at 1MB.
func TestClient_Get_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", maxResponseBodySize+100)))
	}))
	defer server.Close()

	resp := NewClient(nil).Get(context.Background(), server.URL, nil, 5*time.Second)
	if resp.Error != nil {
		t.Fatalf("Get() error = %v", resp.Error)
	}
	if len(resp.Body) != maxResponseBodySize {
		t.Errorf("len(Body) = %d, want %d", len(resp.Body), maxResponseBodySize)
	}
}

func TestClient_Fire(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// a 500 is still a delivered request
	if err := NewClient(nil).Fire(context.Background(), server.URL, time.Second); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestClient_Fire_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if err := NewClient(nil).Fire(context.Background(), url, time.Second); err == nil {
		t.Error("Fire() error = nil, want error for closed server")
	}
}

// TestClient_ConnectionReuse verifies that sequential fire-and-forget requests
// reuse the pooled connection once the body has been drained.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(nil)

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5
	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		if err := client.Fire(ctx, server.URL, 5*time.Second); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

// TestClient_CustomHTTPClient verifies a supplied http.Client is used as-is.
func TestClient_CustomHTTPClient(t *testing.T) {
	var used atomic.Bool
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used.Store(true)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       http.NoBody,
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})}

	resp := NewClient(hc).Get(context.Background(), "http://config.invalid", nil, time.Second)
	if resp.Error != nil {
		t.Fatalf("Get() error = %v", resp.Error)
	}
	if !used.Load() {
		t.Error("custom transport was not used")
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client := NewClient(nil)

	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client

	// should not panic on nil receiver
	client.Close()
}

// TestClient_Close_StillUsable verifies the client keeps working after Close.
func TestClient_Close_StillUsable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(nil)
	_ = client.Fire(context.Background(), server.URL, time.Second)
	client.Close()

	resp := client.Get(context.Background(), server.URL, nil, time.Second)
	if resp.Error != nil {
		t.Errorf("request after Close failed: %v", resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
