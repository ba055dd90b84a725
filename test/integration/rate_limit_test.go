package integration

import (
	"net/http"
	"testing"
)

func TestAPIRateLimitReturns429WithRetryAfter(t *testing.T) {
	baseURL, client, closeFn := newTraceTestServer(t, serverOptions{apiLimitPerMin: 1})
	defer closeFn()

	resp, _ := doJSON(t, client, http.MethodGet, baseURL+"/v1/receipts/GR-NONE", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("first request should pass the limiter, got %d", resp.StatusCode)
	}

	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/v1/receipts/GR-NONE", nil, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED error code, got %#v", env.Error)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on 429")
	}
}

func TestHealthzBypassesRateLimit(t *testing.T) {
	baseURL, client, closeFn := newTraceTestServer(t, serverOptions{apiLimitPerMin: 1})
	defer closeFn()

	for i := 0; i < 5; i++ {
		resp, _ := doRaw(t, client, http.MethodGet, baseURL+"/healthz", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("healthz request %d got %d", i+1, resp.StatusCode)
		}
	}
}
