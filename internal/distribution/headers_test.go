package distribution

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opencourt/publication-svc/internal/models"
)

func TestBuildHeaders(t *testing.T) {
	event := models.PublicationEvent{
		PublicationID: uuid.New(),
		Action:        models.ActionNew,
		Type:          "LIST",
		ListType:      "CIVIL_DAILY_CAUSE_LIST",
		Language:      "ENGLISH",
		Sensitivity:   "PUBLIC",
		Provenance:    "MANUAL_UPLOAD",
		ContentDate:   time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC),
		DisplayFrom:   time.Date(2026, time.April, 1, 9, 30, 0, 0, time.UTC),
		DisplayTo:     time.Date(2026, time.April, 3, 17, 0, 0, 0, time.UTC),
	}
	location := models.LocationMetadata{
		Name:         "Central Crown Court",
		Jurisdiction: []string{"Crime", "Civil"},
		Region:       []string{"London"},
	}

	headers := BuildHeaders(event, location)

	expected := map[string]string{
		"x-provenance":            "MANUAL_UPLOAD",
		"x-type":                  "LIST",
		"x-list-type":             "CIVIL_DAILY_CAUSE_LIST",
		"x-location-name":         "Central Crown Court",
		"x-location-jurisdiction": "Crime,Civil",
		"x-location-region":       "London",
		"x-content-date":          "2026-04-02T00:00:00",
		"x-sensitivity":           "PUBLIC",
		"x-language":              "ENGLISH",
		"x-display-from":          "2026-04-01T09:30:00",
		"x-display-to":            "2026-04-03T17:00:00",
	}

	for key, want := range expected {
		if got := headers[key]; got != want {
			t.Errorf("header %s: expected %q, got %q", key, want, got)
		}
	}
}
