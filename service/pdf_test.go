package service

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/phpdave11/gofpdf"
)

// buildTemplatePDF produces a minimal n-page A4 document to stand in for an
// agreement template.
func buildTemplatePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(72, 72, "AGREEMENT TEMPLATE")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Failed to build template PDF: %v", err)
	}
	return buf.Bytes()
}

// testTemplateSource writes generated trial/service templates to a temp dir.
func testTemplateSource(t *testing.T) TemplateSource {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"trial":   "trial.pdf",
		"service": "service.pdf",
	}
	for id, filename := range files {
		tpl, _ := LookupTemplate(id)
		if err := os.WriteFile(filepath.Join(dir, filename), buildTemplatePDF(t, tpl.Pages), 0o644); err != nil {
			t.Fatalf("Failed to write template: %v", err)
		}
	}
	return &DiskTemplates{Dir: dir, Files: files}
}

func testSignaturePNG(t *testing.T) []byte {
	t.Helper()
	png, err := RasterizeStrokes([]Stroke{
		{{X: 20, Y: 60}, {X: 120, Y: 40}, {X: 220, Y: 80}},
	})
	if err != nil {
		t.Fatalf("Failed to rasterize test signature: %v", err)
	}
	return png
}

func TestFillTemplateBasic(t *testing.T) {
	gen := NewGenerator(testTemplateSource(t))

	out, err := gen.FillTemplate(context.Background(), "trial", map[string]string{
		"company_name": "Acme Corp",
		"order_number": "ORD-100",
		"total_cost":   "$12,400.00",
	}, nil, nil)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("Expected a PDF byte stream")
	}
}

// drawnText extracts the show-text operators from every content stream in the
// document, inflating compressed ones. The raw byte stream is not comparable
// across runs (imported resource dictionaries serialize in map order); the
// drawn text is.
func drawnText(t *testing.T, pdf []byte) []string {
	t.Helper()
	re := regexp.MustCompile(`\((?:\\.|[^\\()])*\)\s*Tj`)
	var ops []string
	rest := pdf
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			break
		}
		rest = rest[i+len("stream"):]
		if bytes.HasPrefix(rest, []byte("\r\n")) {
			rest = rest[2:]
		} else if bytes.HasPrefix(rest, []byte("\n")) {
			rest = rest[1:]
		}
		j := bytes.Index(rest, []byte("endstream"))
		if j < 0 {
			break
		}
		data := rest[:j]
		if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			if inflated, err := io.ReadAll(zr); err == nil {
				data = inflated
			}
		}
		ops = append(ops, re.FindAllString(string(data), -1)...)
		rest = rest[j+len("endstream"):]
	}
	sort.Strings(ops)
	return ops
}

func TestFillTemplateDeterministic(t *testing.T) {
	gen := NewGenerator(testTemplateSource(t))
	fields := map[string]string{
		"company_name":   "Acme Corp",
		"contact_name":   "Jane Doe",
		"order_number":   "ORD-100",
		"robot_model":    "TF-200",
		"robot_quantity": "3",
	}

	first, err := gen.FillTemplate(context.Background(), "service", fields, nil, nil)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}
	second, err := gen.FillTemplate(context.Background(), "service", fields, nil, nil)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}

	firstOps := drawnText(t, first)
	stamped := false
	for _, op := range firstOps {
		if strings.Contains(op, "Acme Corp") {
			stamped = true
			break
		}
	}
	if !stamped {
		t.Fatal("Expected stamped field value in the content streams")
	}
	if !reflect.DeepEqual(firstOps, drawnText(t, second)) {
		t.Error("Identical input must draw identical content")
	}

	// A different value must change the drawn content
	fields["company_name"] = "Other Corp"
	third, err := gen.FillTemplate(context.Background(), "service", fields, nil, nil)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}
	if reflect.DeepEqual(firstOps, drawnText(t, third)) {
		t.Error("Changed field value should change the drawn content")
	}
}

func TestFillTemplateSkipsMissingFields(t *testing.T) {
	gen := NewGenerator(testTemplateSource(t))

	// No values at all: every field is skipped, never an error
	out, err := gen.FillTemplate(context.Background(), "trial", map[string]string{}, nil, nil)
	if err != nil {
		t.Fatalf("FillTemplate with empty fields failed: %v", err)
	}
	if len(out) == 0 {
		t.Error("Expected a rendered document")
	}

	// Unregistered keys are ignored
	if _, err := gen.FillTemplate(context.Background(), "trial", map[string]string{"no_such_field": "x"}, nil, nil); err != nil {
		t.Fatalf("FillTemplate with unknown key failed: %v", err)
	}
}

func TestFillTemplateEmbedsSignature(t *testing.T) {
	gen := NewGenerator(testTemplateSource(t))
	fields := map[string]string{"company_name": "Acme Corp"}

	plain, err := gen.FillTemplate(context.Background(), "trial", fields, nil, nil)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}
	signed, err := gen.FillTemplate(context.Background(), "trial", fields, testSignaturePNG(t), nil)
	if err != nil {
		t.Fatalf("FillTemplate with signature failed: %v", err)
	}
	imageMarker := []byte("/Subtype /Image")
	if bytes.Contains(plain, imageMarker) {
		t.Error("Unsigned render should carry no raster image")
	}
	if got := bytes.Count(signed, imageMarker); got != 1 {
		t.Errorf("Expected 1 embedded image, got %d", got)
	}

	countered, err := gen.FillTemplate(context.Background(), "trial", fields, testSignaturePNG(t), testSignaturePNG(t))
	if err != nil {
		t.Fatalf("FillTemplate with counter-signature failed: %v", err)
	}
	if got := bytes.Count(countered, imageMarker); got != 2 {
		t.Errorf("Expected 2 embedded images, got %d", got)
	}
}

func TestFillTemplateUnknownTemplate(t *testing.T) {
	gen := NewGenerator(testTemplateSource(t))
	_, err := gen.FillTemplate(context.Background(), "bogus", nil, nil, nil)
	if !errors.Is(err, ErrTemplateLoad) {
		t.Errorf("Expected ErrTemplateLoad, got %v", err)
	}
}

func TestFillTemplateBadTemplateBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "trial.pdf"), []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	gen := NewGenerator(&DiskTemplates{Dir: dir, Files: map[string]string{"trial": "trial.pdf"}})

	_, err := gen.FillTemplate(context.Background(), "trial", nil, nil, nil)
	if !errors.Is(err, ErrTemplateLoad) {
		t.Errorf("Expected ErrTemplateLoad for malformed template, got %v", err)
	}
}

func TestFillTemplateMissingTemplateFile(t *testing.T) {
	gen := NewGenerator(&DiskTemplates{Dir: t.TempDir(), Files: map[string]string{"trial": "trial.pdf"}})
	_, err := gen.FillTemplate(context.Background(), "trial", nil, nil, nil)
	if !errors.Is(err, ErrTemplateLoad) {
		t.Errorf("Expected ErrTemplateLoad for missing file, got %v", err)
	}
}

func TestFillTemplateBadSignatureImage(t *testing.T) {
	gen := NewGenerator(testTemplateSource(t))

	_, err := gen.FillTemplate(context.Background(), "trial", nil, []byte("not a png"), nil)
	if !errors.Is(err, ErrImageEmbed) {
		t.Errorf("Expected ErrImageEmbed, got %v", err)
	}

	_, err = gen.FillTemplate(context.Background(), "trial", nil, nil, []byte("not a png"))
	if !errors.Is(err, ErrImageEmbed) {
		t.Errorf("Expected ErrImageEmbed for bad counter-signature, got %v", err)
	}
}

func TestTemplateTableCoversSignatureBoxes(t *testing.T) {
	for _, id := range TemplateIDs() {
		tpl, ok := LookupTemplate(id)
		if !ok {
			t.Fatalf("Template %s not found", id)
		}
		if tpl.Pages < 1 {
			t.Errorf("Template %s has no pages", id)
		}
		if tpl.SignatureBox.Page != tpl.Pages-1 {
			t.Errorf("Template %s: signature box should sit on the last page", id)
		}
		for key, pos := range tpl.Fields {
			if pos.Page < 0 || pos.Page >= tpl.Pages {
				t.Errorf("Template %s field %s registered on page %d of %d", id, key, pos.Page, tpl.Pages)
			}
		}
	}
}
