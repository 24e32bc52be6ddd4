package pdfgen

import (
	"bytes"
	"testing"
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
)

func testBinder() Binder {
	return Binder{
		OwnerName: "Ada Lovelace",
		Answers: []models.SectionAnswer{
			{SectionID: 1, DataJSON: `{"fullName":"Ada Lovelace","dateOfBirth":"1815-12-10"}`},
			{SectionID: 9, DataJSON: `{"serviceType":"memorial","songs":["Clair de Lune","Ave Maria"]}`},
			{SectionID: 17, DataJSON: `{"finalMessage":"Thank you for everything."}`},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(testBinder(), Options{GeneratedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF document")
	}
	if len(out) < 1000 {
		t.Fatalf("suspiciously small document: %d bytes", len(out))
	}
}

func TestRenderWatermarkChangesOutput(t *testing.T) {
	opts := Options{GeneratedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	clean, err := Render(testBinder(), opts)
	if err != nil {
		t.Fatalf("render clean: %v", err)
	}

	opts.Watermark = true
	opts.WatermarkLabel = "PREVIEW"
	marked, err := Render(testBinder(), opts)
	if err != nil {
		t.Fatalf("render watermarked: %v", err)
	}

	if bytes.Equal(clean, marked) {
		t.Fatal("watermarked output identical to clean output")
	}
}

func TestRenderEmptyBinder(t *testing.T) {
	out, err := Render(Binder{OwnerName: "Ada Lovelace"}, Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("empty binder must still render a cover page")
	}
}

func TestFlattenAnswerJSON(t *testing.T) {
	fields := flattenAnswerJSON(`{
		"fullName": "Ada",
		"hasWill": true,
		"age": 36,
		"contacts": [{"name": "Charles", "relation": "friend"}],
		"empty": ""
	}`)

	byLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = f.Value
	}

	if byLabel["Full Name"] != "Ada" {
		t.Fatalf("camelCase key not humanized: %+v", byLabel)
	}
	if byLabel["Has Will"] != "Yes" {
		t.Fatalf("bool not rendered: %+v", byLabel)
	}
	if byLabel["Age"] != "36" {
		t.Fatalf("number not rendered: %+v", byLabel)
	}
	if byLabel["Contacts"] != "Name: Charles, Relation: friend" {
		t.Fatalf("nested object not rendered: %q", byLabel["Contacts"])
	}
	if _, ok := byLabel["Empty"]; ok {
		t.Fatal("blank values must be dropped")
	}

	if got := flattenAnswerJSON("not json"); got != nil {
		t.Fatalf("invalid json should yield no fields, got %+v", got)
	}
}
