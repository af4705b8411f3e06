package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestCallbackOriginAllowsListedRange(t *testing.T) {
	prefixes := []netip.Prefix{netip.MustParsePrefix("196.201.214.0/24")}
	handler := CallbackOrigin(prefixes, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ipn/daraja/callback", nil)
	req.RemoteAddr = "196.201.214.100:44321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestCallbackOriginDropsUnknownAddress(t *testing.T) {
	prefixes := []netip.Prefix{netip.MustParsePrefix("196.201.214.0/24")}
	reached := false
	handler := CallbackOrigin(prefixes, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ipn/daraja/callback", nil)
	req.RemoteAddr = "10.0.0.5:44321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// the sender still gets the benign ack; only the log records the drop
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if reached {
		t.Fatalf("handler should not run for a rejected origin")
	}
	if got := rec.Body.String(); got != `{"ResultCode":0,"ResultDesc":"Accepted"}`+"\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestCallbackOriginHonorsForwardedFor(t *testing.T) {
	prefixes := []netip.Prefix{netip.MustParsePrefix("196.201.214.0/24")}
	handler := CallbackOrigin(prefixes, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ipn/daraja/callback", nil)
	req.RemoteAddr = "10.0.0.5:44321"
	req.Header.Set("X-Forwarded-For", "196.201.214.12, 10.0.0.5")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestCallbackOriginDisabledWithoutPrefixes(t *testing.T) {
	handler := CallbackOrigin(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ipn/daraja/callback", nil)
	req.RemoteAddr = "203.0.113.9:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
