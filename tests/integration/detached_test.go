//go:build integration

package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/philiph/xmlsig"
	"github.com/philiph/xmlsig/testfixtures/keys"
)

const payload = `<catalog xmlns="urn:example:catalog"><item sku="1">Widget</item></catalog>`

// newPayloadServer serves the payload behind basic auth and counts fetches.
func newPayloadServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "signer" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func insecureConfig() xmlsig.ValidationConfig {
	cfg := xmlsig.DefaultValidationConfig()
	cfg.SecureValidation = false
	return cfg
}

func signDetached(t *testing.T, e *xmlsig.Engine, k *keys.Set, uri string) *etree.Element {
	t.Helper()
	sig, err := e.NewSignature(nil, xmlsig.SignatureSpec{SignatureMethod: xmlsig.SignatureRSASHA256})
	if err != nil {
		t.Fatalf("NewSignature error: %v", err)
	}
	sig.SignedInfo().SetResolverProperty(xmlsig.PropertyBasicUsername, "signer")
	sig.SignedInfo().SetResolverProperty(xmlsig.PropertyBasicPassword, "secret")
	if _, err := sig.AddDocument(xmlsig.ReferenceSpec{
		URI:          uri,
		DigestMethod: xmlsig.DigestSHA256,
		Transforms:   []xmlsig.TransformSpec{{Algorithm: xmlsig.ExclusiveC14N10}},
	}); err != nil {
		t.Fatalf("AddDocument error: %v", err)
	}
	if err := sig.Sign(context.Background(), k.RSA); err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	doc := etree.NewDocument()
	doc.SetRoot(sig.Element())
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatal(err)
	}
	back := etree.NewDocument()
	if err := back.ReadFromString(s); err != nil {
		t.Fatal(err)
	}
	return back.Root()
}

func TestDetachedSignature_HTTPResolverWithCache(t *testing.T) {
	srv, fetches := newPayloadServer(t)
	k := keys.New(t)

	cached, err := xmlsig.NewCachingResolver(context.Background(), xmlsig.NewHTTPResolver(), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCachingResolver error: %v", err)
	}
	defer cached.Close()

	reg := prometheus.NewRegistry()
	e, err := xmlsig.New(
		xmlsig.WithConfig(insecureConfig()),
		xmlsig.WithResolvers(cached),
		xmlsig.WithMetricsRecorder(xmlsig.NewPrometheusMetricsRecorderWithRegistry(reg)),
	)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	signed := signDetached(t, e, k, srv.URL+"/catalog.xml")

	for i := 0; i < 2; i++ {
		sig, err := e.ParseSignature(signed, "")
		if err != nil {
			t.Fatalf("ParseSignature error: %v", err)
		}
		sig.SignedInfo().SetResolverProperty(xmlsig.PropertyBasicUsername, "signer")
		sig.SignedInfo().SetResolverProperty(xmlsig.PropertyBasicPassword, "secret")
		valid, err := sig.CheckSignatureValue(context.Background(), k.Certificate)
		if err != nil || !valid {
			t.Fatalf("run %d: CheckSignatureValue = %v, %v", i, valid, err)
		}
		ref, err := sig.SignedInfo().Item(0)
		if err != nil {
			t.Fatal(err)
		}
		if got := ref.ContentsBeforeTransformation().MIMEType(); got != "application/xml" {
			t.Errorf("run %d: MIME type = %q", i, got)
		}
	}

	if got := fetches.Load(); got != 1 {
		t.Errorf("server fetches = %d, want 1 (later runs served from cache)", got)
	}
	if cached.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", cached.Len())
	}
	if got := dereferences(t, reg); got != 3 {
		t.Errorf("dereferences recorded = %v, want 3", got)
	}
}

func TestDetachedSignature_SecureValidationRefusesHTTP(t *testing.T) {
	srv, fetches := newPayloadServer(t)
	k := keys.New(t)

	insecure, err := xmlsig.New(xmlsig.WithConfig(insecureConfig()), xmlsig.WithResolvers(xmlsig.NewHTTPResolver()))
	if err != nil {
		t.Fatal(err)
	}
	signed := signDetached(t, insecure, k, srv.URL+"/catalog.xml")

	secure, err := xmlsig.New(xmlsig.WithResolvers(xmlsig.NewHTTPResolver()))
	if err != nil {
		t.Fatal(err)
	}
	sig, err := secure.ParseSignature(signed, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sig.CheckSignatureValue(context.Background(), k.Certificate)
	if !errors.Is(err, xmlsig.ErrReferenceNotInitialized) {
		t.Fatalf("CheckSignatureValue error = %v, want reference_not_initialized", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("server fetches = %d, want 1 (signing only)", got)
	}
}

func TestDetachedSignature_MissingCredentials(t *testing.T) {
	srv, _ := newPayloadServer(t)
	k := keys.New(t)

	e, err := xmlsig.New(xmlsig.WithConfig(insecureConfig()), xmlsig.WithResolvers(xmlsig.NewHTTPResolver()))
	if err != nil {
		t.Fatal(err)
	}
	signed := signDetached(t, e, k, srv.URL+"/catalog.xml")

	sig, err := e.ParseSignature(signed, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sig.CheckSignatureValue(context.Background(), k.Certificate)
	var appErr *xmlsig.AppError
	if !errors.As(err, &appErr) || appErr.Code != xmlsig.ErrCodeReferenceNotInitialized {
		t.Fatalf("error = %v, want reference_not_initialized", err)
	}
	if !errors.Is(err, xmlsig.ErrResolverFailed) {
		t.Errorf("cause does not carry resolver_failed: %v", err)
	}
}

// dereferences sums the dereference counter over all label values.
func dereferences(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "xmlsig_dereferences_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
