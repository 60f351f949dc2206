package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/distribution"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	handler := NewDistributeHandler(nil, zap.NewNop())
	app.Post("/api/v1/distribute", handler.Distribute)
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/distribute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestDistributeRejectsMalformedBody(t *testing.T) {
	resp := postJSON(t, newTestApp(), "not json")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
}

func TestDistributeRejectsUnknownAction(t *testing.T) {
	body := `{"event":{"publication_id":"7b8d3a84-0b9b-4a3e-93b7-1c3f1a2b4c5d","action":"ARCHIVE"},"destinations":[]}`
	resp := postJSON(t, newTestApp(), body)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", resp.StatusCode)
	}
}

func TestDistributeRequiresPublicationID(t *testing.T) {
	body := `{"event":{"action":"NEW"},"destinations":[]}`
	resp := postJSON(t, newTestApp(), body)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for missing publication id, got %d", resp.StatusCode)
	}
}

func TestStatusForError(t *testing.T) {
	notFound := http.StatusNotFound
	serverError := http.StatusInternalServerError

	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "delivery exhaustion with 404 passes through",
			err:  &distribution.DeliveryError{DestinationURL: "https://sub.example", LastStatus: &notFound, Reason: "404 Not Found", Retries: 3},
			want: fiber.StatusNotFound,
		},
		{
			name: "generic delivery exhaustion is a bad gateway",
			err:  &distribution.DeliveryError{DestinationURL: "https://sub.example", LastStatus: &serverError, Reason: "500 Internal Server Error", Retries: 3},
			want: fiber.StatusBadGateway,
		},
		{
			name: "upstream metadata failure is a bad gateway",
			err:  &distribution.UpstreamMetadataError{Op: "location metadata"},
			want: fiber.StatusBadGateway,
		},
		{
			name: "rate limited maps to 429",
			err:  &distribution.RateLimitedError{DestinationURL: "https://sub.example"},
			want: fiber.StatusTooManyRequests,
		},
	}

	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
