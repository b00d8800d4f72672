//go:build integration

package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/philiph/xmlsig/internal/core/domain"
	"github.com/philiph/xmlsig/internal/core/ports"
)

func TestHTTP_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if r.URL.Path == "/private.xml" && (!ok || user != "alice" || pass != "secret") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/doc.xml", "/private.xml":
			w.Header().Set("Content-Type", "application/xml; charset=utf-8")
			w.Write([]byte("<doc/>"))
		case "/big.xml":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	h := NewHTTP(WithMaxResourceSize(32))

	t.Run("plain fetch", func(t *testing.T) {
		rc := ports.ResolverContext{URI: server.URL + "/doc.xml", HasURI: true}
		if !h.CanResolve(rc) {
			t.Fatal("CanResolve = false")
		}
		in, err := h.Resolve(context.Background(), rc)
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		b, _ := in.Bytes()
		if string(b) != "<doc/>" {
			t.Errorf("content = %q", b)
		}
		if in.MIMEType() != "application/xml" {
			t.Errorf("MIMEType = %q", in.MIMEType())
		}
	})

	t.Run("relative to base with basic auth", func(t *testing.T) {
		rc := ports.ResolverContext{
			URI:     "private.xml",
			HasURI:  true,
			BaseURI: server.URL + "/",
			Properties: map[string]string{
				PropertyBasicUsername: "alice",
				PropertyBasicPassword: "secret",
			},
		}
		if _, err := h.Resolve(context.Background(), rc); err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
	})

	for name, path := range map[string]string{"not found": "/missing.xml", "too large": "/big.xml"} {
		t.Run(name, func(t *testing.T) {
			_, err := h.Resolve(context.Background(), ports.ResolverContext{URI: server.URL + path, HasURI: true})
			if !errors.Is(err, domain.ErrResolverFailed) {
				t.Errorf("error = %v, want resolver_failed", err)
			}
		})
	}

	t.Run("refused under secure validation", func(t *testing.T) {
		rc := ports.ResolverContext{URI: server.URL + "/doc.xml", HasURI: true, SecureValidation: true}
		if h.CanResolve(rc) {
			t.Error("CanResolve = true under secure validation")
		}
	})
}

func TestCaching_HTTPCredentialsNotShared(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("<private/>"))
	}))
	defer server.Close()

	c, err := NewCaching(context.Background(), NewHTTP(), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCaching error: %v", err)
	}
	defer c.Close()

	uri := server.URL + "/private.xml"
	withCreds := ports.ResolverContext{URI: uri, HasURI: true, Properties: map[string]string{
		PropertyBasicUsername: "alice",
		PropertyBasicPassword: "secret",
	}}
	if _, err := c.Resolve(context.Background(), withCreds); err != nil {
		t.Fatalf("credentialed Resolve error: %v", err)
	}

	_, err = c.Resolve(context.Background(), ports.ResolverContext{URI: uri, HasURI: true})
	if !errors.Is(err, domain.ErrResolverFailed) {
		t.Errorf("anonymous Resolve error = %v, want resolver_failed", err)
	}
}
