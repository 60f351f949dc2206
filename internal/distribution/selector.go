package distribution

import (
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/models"
)

// PayloadKind tags the wire representation of one delivery leg.
type PayloadKind string

const (
	PayloadJSON  PayloadKind = "json"
	PayloadFile  PayloadKind = "file"
	PayloadEmpty PayloadKind = "empty"
)

// Leg is one discrete HTTP request belonging to the delivery of a single
// event to a single destination. Verb and kind are fully determined by the
// event's action and flat-file flag.
type Leg struct {
	Kind     PayloadKind
	Verb     string
	JSON     string
	Data     []byte
	Filename string
}

// Content holds the publication representations fetched from the
// data-management service for one event. Unused fields stay empty: a DELETE
// needs none of them, a flat file needs only FlatFile, and a structured list
// needs JSONBlob plus the rendered Document.
type Content struct {
	JSONBlob     string
	FlatFile     []byte
	FlatFileName string
	Document     []byte
	DocumentName string
}

// SelectLegs chooses the delivery legs for one event:
//   - DELETE: a single empty-bodied leg, headers only
//   - flat file NEW/UPDATE: a single multipart file leg
//   - structured NEW/UPDATE: a JSON leg, then a multipart document leg
//     unless the rendered document is empty, which is logged and skipped
func SelectLegs(logger *zap.Logger, event models.PublicationEvent, content Content) []Leg {
	verb := event.Action.Verb()

	if event.Action == models.ActionDelete {
		return []Leg{{Kind: PayloadEmpty, Verb: verb}}
	}

	if event.IsFlatFile {
		return []Leg{{
			Kind:     PayloadFile,
			Verb:     verb,
			Data:     content.FlatFile,
			Filename: content.FlatFileName,
		}}
	}

	legs := []Leg{{Kind: PayloadJSON, Verb: verb, JSON: content.JSONBlob}}

	if len(content.Document) == 0 {
		logger.Info("Rendered document is empty, skipping document leg",
			zap.String("publication_id", event.PublicationID.String()),
		)
		return legs
	}

	return append(legs, Leg{
		Kind:     PayloadFile,
		Verb:     verb,
		Data:     content.Document,
		Filename: content.DocumentName,
	})
}
