package distribution

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/models"
)

func TestSelectLegsDeleteIsAlwaysEmpty(t *testing.T) {
	for _, flatFile := range []bool{false, true} {
		event := models.PublicationEvent{
			PublicationID: uuid.New(),
			Action:        models.ActionDelete,
			IsFlatFile:    flatFile,
		}

		legs := SelectLegs(zap.NewNop(), event, Content{JSONBlob: "ignored", FlatFile: []byte("ignored")})

		if len(legs) != 1 {
			t.Fatalf("isFlatFile=%v: expected 1 leg, got %d", flatFile, len(legs))
		}
		if legs[0].Kind != PayloadEmpty {
			t.Errorf("isFlatFile=%v: expected empty payload, got %s", flatFile, legs[0].Kind)
		}
		if legs[0].Verb != "DELETE" {
			t.Errorf("isFlatFile=%v: expected DELETE verb, got %s", flatFile, legs[0].Verb)
		}
	}
}

func TestSelectLegsFlatFileHasSingleFileLeg(t *testing.T) {
	cases := []struct {
		action models.Action
		verb   string
	}{
		{models.ActionNew, "POST"},
		{models.ActionUpdate, "PUT"},
	}

	for _, tc := range cases {
		event := models.PublicationEvent{
			PublicationID: uuid.New(),
			Action:        tc.action,
			IsFlatFile:    true,
		}
		content := Content{FlatFile: []byte("raw pdf bytes"), FlatFileName: "listing.pdf"}

		legs := SelectLegs(zap.NewNop(), event, content)

		if len(legs) != 1 {
			t.Fatalf("action=%s: expected 1 leg, got %d", tc.action, len(legs))
		}
		if legs[0].Kind != PayloadFile {
			t.Errorf("action=%s: expected file payload, got %s", tc.action, legs[0].Kind)
		}
		if legs[0].Verb != tc.verb {
			t.Errorf("action=%s: expected verb %s, got %s", tc.action, tc.verb, legs[0].Verb)
		}
		if legs[0].Filename != "listing.pdf" {
			t.Errorf("action=%s: expected filename carried through, got %q", tc.action, legs[0].Filename)
		}
	}
}

func TestSelectLegsStructuredListHasJSONThenDocument(t *testing.T) {
	event := models.PublicationEvent{
		PublicationID: uuid.New(),
		Action:        models.ActionNew,
	}
	content := Content{
		JSONBlob:     `{"courtLists":[]}`,
		Document:     []byte("rendered pdf"),
		DocumentName: "rendered.pdf",
	}

	legs := SelectLegs(zap.NewNop(), event, content)

	if len(legs) != 2 {
		t.Fatalf("expected JSON leg then document leg, got %d legs", len(legs))
	}
	if legs[0].Kind != PayloadJSON || legs[0].JSON != content.JSONBlob {
		t.Errorf("expected first leg to carry the JSON blob, got %+v", legs[0])
	}
	if legs[1].Kind != PayloadFile {
		t.Errorf("expected second leg to be the document, got %s", legs[1].Kind)
	}
}

func TestSelectLegsSkipsEmptyDocument(t *testing.T) {
	event := models.PublicationEvent{
		PublicationID: uuid.New(),
		Action:        models.ActionUpdate,
	}
	content := Content{JSONBlob: `{"courtLists":[]}`}

	legs := SelectLegs(zap.NewNop(), event, content)

	if len(legs) != 1 {
		t.Fatalf("expected the empty document leg to be skipped, got %d legs", len(legs))
	}
	if legs[0].Kind != PayloadJSON {
		t.Errorf("expected the JSON leg only, got %s", legs[0].Kind)
	}
}
