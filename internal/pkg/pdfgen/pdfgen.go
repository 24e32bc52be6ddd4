package pdfgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
)

// Options controls the rendered binder.
type Options struct {
	// Watermark stamps every page with the label when true.
	Watermark      bool
	WatermarkLabel string
	// GeneratedAt defaults to now; fixed in tests for stable output.
	GeneratedAt time.Time
}

// Binder bundles everything one export needs.
type Binder struct {
	OwnerName string
	Answers   []models.SectionAnswer
}

const defaultWatermarkLabel = "PREVIEW"

// Render produces the legacy binder PDF. Sections render in catalog order;
// sections without saved answers are skipped.
func Render(binder Binder, opts Options) ([]byte, error) {
	if opts.WatermarkLabel == "" {
		opts.WatermarkLabel = defaultWatermarkLabel
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("The Grand Finale — Legacy Binder", true)
	pdf.SetAuthor(binder.OwnerName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)

	if opts.Watermark {
		pdf.SetFooterFunc(func() {})
		watermark := opts.WatermarkLabel
		pdf.SetHeaderFuncMode(func() {
			stampWatermark(pdf, watermark)
		}, true)
	}

	renderCover(pdf, binder.OwnerName, generatedAt)

	answersBySection := make(map[entitlements.SectionID]models.SectionAnswer, len(binder.Answers))
	for _, answer := range binder.Answers {
		answersBySection[entitlements.SectionID(answer.SectionID)] = answer
	}

	for _, section := range entitlements.AllSections() {
		answer, ok := answersBySection[section]
		if !ok {
			continue
		}
		renderSection(pdf, section, answer)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render binder pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCover(pdf *gofpdf.Fpdf, ownerName string, generatedAt time.Time) {
	pdf.AddPage()
	pdf.Ln(60)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 14, "The Grand Finale", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, "Legacy Binder", "", 1, "C", false, 0, "")
	pdf.Ln(20)
	if ownerName != "" {
		pdf.SetFont("Helvetica", "", 14)
		pdf.CellFormat(0, 8, "Prepared by "+ownerName, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 8, generatedAt.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func renderSection(pdf *gofpdf.Fpdf, section entitlements.SectionID, answer models.SectionAnswer) {
	pdf.AddPage()

	title := section.Title()
	if section.IsNumbered() {
		title = fmt.Sprintf("Section %d: %s", int(section), title)
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	fields := flattenAnswerJSON(answer.DataJSON)
	if len(fields) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.SetTextColor(130, 130, 130)
		pdf.CellFormat(0, 8, "No entries recorded.", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		return
	}

	for _, field := range fields {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, field.Label, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, field.Value, "", "L", false)
		pdf.Ln(2)
	}
}

func stampWatermark(pdf *gofpdf.Fpdf, label string) {
	pdf.SetFont("Helvetica", "B", 60)
	pdf.SetTextColor(225, 225, 225)
	pdf.TransformBegin()
	pdf.TransformRotate(45, 105, 148)
	pdf.Text(40, 160, label)
	pdf.TransformEnd()
	pdf.SetTextColor(0, 0, 0)
}

type answerField struct {
	Label string
	Value string
}

// flattenAnswerJSON turns the stored section document into printable rows.
// Keys are humanized and sorted for deterministic output; nested values are
// rendered one level deep.
func flattenAnswerJSON(dataJSON string) []answerField {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(dataJSON), &doc); err != nil || len(doc) == 0 {
		return nil
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]answerField, 0, len(keys))
	for _, key := range keys {
		value := renderValue(doc[key])
		if value == "" {
			continue
		}
		fields = append(fields, answerField{Label: humanizeKey(key), Value: value})
	}
	return fields
}

func renderValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case bool:
		if value {
			return "Yes"
		}
		return "No"
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	case []interface{}:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if s := renderValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			if s := renderValue(value[key]); s != "" {
				parts = append(parts, humanizeKey(key)+": "+s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", value)
	}
}

// humanizeKey turns camelCase or snake_case form keys into labels.
func humanizeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
