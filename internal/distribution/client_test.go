package distribution

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/config"
)

func newTestClient() *Client {
	return NewClient(&config.DeliveryConfig{
		TimeoutSeconds:        5,
		MaxRetries:            3,
		InitialBackoffSeconds: 0,
	}, zap.NewNop())
}

func jsonLeg() Leg {
	return Leg{Kind: PayloadJSON, Verb: "POST", JSON: `{"a":1}`}
}

func TestSendSucceedsFirstAttempt(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	attempts, err := newTestClient().Send(context.Background(), server.URL, jsonLeg(), nil, "")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	attempts, err := newTestClient().Send(context.Background(), server.URL, jsonLeg(), nil, "")
	if err != nil {
		t.Fatalf("Send returned error after eventual success: %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected success on attempt 4, got %d", attempts)
	}
}

func TestSendExhaustsRetryBudget(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	attempts, err := newTestClient().Send(context.Background(), server.URL, jsonLeg(), nil, "")
	if err == nil {
		t.Fatal("expected DeliveryError after exhausting retries")
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts (3 retries), got %d", attempts)
	}
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Errorf("expected 4 requests, got %d", n)
	}

	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected *DeliveryError, got %T", err)
	}
	if deliveryErr.LastStatus == nil || *deliveryErr.LastStatus != http.StatusNotFound {
		t.Errorf("expected last status 404, got %v", deliveryErr.LastStatus)
	}
	if !strings.Contains(err.Error(), "failed after 3 retries due to: 404 Not Found") {
		t.Errorf("expected verbatim cause in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), server.URL) {
		t.Errorf("expected destination URL in message, got %q", err.Error())
	}
}

func TestSendAttachesHeadersAndBearer(t *testing.T) {
	var gotAuth, gotProvenance, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotProvenance = r.Header.Get("x-provenance")
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	headers := map[string]string{"x-provenance": "MANUAL_UPLOAD"}
	if _, err := newTestClient().Send(context.Background(), server.URL, jsonLeg(), headers, "tok-1"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotProvenance != "MANUAL_UPLOAD" {
		t.Errorf("expected provenance header, got %q", gotProvenance)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
}

func TestSendOmitsAuthHeaderWithoutToken(t *testing.T) {
	authSeen := "unset"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authSeen = r.Header.Get("Authorization")
	}))
	defer server.Close()

	if _, err := newTestClient().Send(context.Background(), server.URL, jsonLeg(), nil, ""); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if authSeen != "" {
		t.Errorf("expected no Authorization header for legacy destinations, got %q", authSeen)
	}
}

func TestSendMultipartFileLeg(t *testing.T) {
	var filename string
	var fileBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected a file part: %v", err)
			return
		}
		defer file.Close()
		filename = header.Filename
		buf := make([]byte, header.Size)
		_, _ = file.Read(buf)
		fileBody = buf
	}))
	defer server.Close()

	leg := Leg{Kind: PayloadFile, Verb: "POST", Data: []byte("pdf bytes"), Filename: "list.pdf"}
	if _, err := newTestClient().Send(context.Background(), server.URL, leg, nil, ""); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if filename != "list.pdf" {
		t.Errorf("expected filename list.pdf, got %q", filename)
	}
	if string(fileBody) != "pdf bytes" {
		t.Errorf("expected file content carried through, got %q", fileBody)
	}
}
