package distribution

import (
	"strings"
	"time"

	"github.com/opencourt/publication-svc/internal/models"
)

// localDateTimeFormat matches the ISO-8601 local date-time representation
// subscribers already parse (no zone offset).
const localDateTimeFormat = "2006-01-02T15:04:05"

// BuildHeaders derives the descriptive header set for one publication event.
// The same headers are attached to every leg of the event, DELETE included,
// so subscribers can correlate legs and identify removed publications.
func BuildHeaders(event models.PublicationEvent, location models.LocationMetadata) map[string]string {
	return map[string]string{
		"x-provenance":            event.Provenance,
		"x-type":                  event.Type,
		"x-list-type":             event.ListType,
		"x-location-name":         location.Name,
		"x-location-jurisdiction": strings.Join(location.Jurisdiction, ","),
		"x-location-region":       strings.Join(location.Region, ","),
		"x-content-date":          formatLocalDateTime(event.ContentDate),
		"x-sensitivity":           event.Sensitivity,
		"x-language":              event.Language,
		"x-display-from":          formatLocalDateTime(event.DisplayFrom),
		"x-display-to":            formatLocalDateTime(event.DisplayTo),
	}
}

func formatLocalDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(localDateTimeFormat)
}
