//go:build !integration

package api

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qr-redirect/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
)

func TestRequireOwner(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	var gotOwner string
	protected := auth.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = logging.OwnerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(hdr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/codes", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		return rr.Code
	}

	t.Run("no credentials -> 401", func(t *testing.T) {
		if code := serve(""); code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", code)
		}
	})

	t.Run("wrong scheme -> 401", func(t *testing.T) {
		if code := serve("Basic aaa.bbb.ccc"); code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", code)
		}
	})

	t.Run("token signed with another secret -> 401", func(t *testing.T) {
		tok, _ := NewAuthenticator("someone-else").Mint("owner-1", time.Minute)
		if code := serve("Bearer " + tok); code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", code)
		}
	})

	t.Run("expired token -> 401", func(t *testing.T) {
		tok, _ := auth.Mint("owner-1", -time.Minute)
		if code := serve("Bearer " + tok); code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", code)
		}
	})

	t.Run("token without subject -> 401", func(t *testing.T) {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString([]byte(testSecret))
		if code := serve("Bearer " + tok); code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", code)
		}
	})

	t.Run("valid token -> owner in context", func(t *testing.T) {
		tok, err := auth.Mint("owner-1", time.Minute)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if code := serve("bearer " + tok); code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if gotOwner != "owner-1" {
			t.Fatalf("expected owner-1 in context, got %q", gotOwner)
		}
	})
}

func TestClientIPs(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 "})
	if err != nil {
		t.Fatalf("parse proxies: %v", err)
	}
	newReq := func(peer, xff, realIP string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = peer
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		if realIP != "" {
			req.Header.Set("X-Real-IP", realIP)
		}
		return req
	}

	cases := []struct {
		name    string
		trusted []*net.IPNet
		req     *http.Request
		want    string
	}{
		{"no proxies: headers ignored", nil, newReq("198.51.100.7:5555", "203.0.113.5", "203.0.113.6"), "198.51.100.7"},
		{"untrusted peer: headers ignored", trusted, newReq("198.51.100.7:5555", "203.0.113.5", ""), "198.51.100.7"},
		{"trusted peer: nearest untrusted hop", trusted, newReq("10.1.2.3:443", "1.1.1.1, 203.0.113.5, 10.9.9.9", ""), "203.0.113.5"},
		{"trusted peer by single ip", trusted, newReq("192.0.2.1:443", "203.0.113.5", ""), "203.0.113.5"},
		{"trusted peer: garbage hop stops the walk", trusted, newReq("10.1.2.3:443", "garbage", "203.0.113.9"), "203.0.113.9"},
		{"trusted peer without headers", trusted, newReq("10.1.2.3:443", "", ""), "10.1.2.3"},
		{"peer without port", nil, newReq("@", "", ""), "@"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := (clientIPs{trusted: tc.trusted}).of(tc.req); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}

	t.Run("bad proxy entry is rejected", func(t *testing.T) {
		if _, err := ParseTrustedProxies([]string{"proxy.local"}); err == nil {
			t.Fatal("expected an error")
		}
	})
}
