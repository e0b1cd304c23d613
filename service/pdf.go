package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/phpdave11/gofpdf/contrib/gofpdi"
)

var (
	// ErrTemplateLoad is returned when a template PDF cannot be fetched or
	// parsed.
	ErrTemplateLoad = errors.New("template load failed")
	// ErrImageEmbed is returned when a supplied signature image is not a
	// decodable PNG.
	ErrImageEmbed = errors.New("signature image embed failed")
)

// TemplateSource fetches raw template PDF bytes by template id.
type TemplateSource interface {
	Template(ctx context.Context, id string) ([]byte, error)
}

// DiskTemplates serves templates from a directory on disk.
type DiskTemplates struct {
	Dir   string
	Files map[string]string // template id -> filename
}

func (d *DiskTemplates) Template(ctx context.Context, id string) ([]byte, error) {
	filename, ok := d.Files[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %q", ErrTemplateLoad, id)
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	return data, nil
}

// Generator stamps field values and signature images onto agreement
// templates at the coordinates registered in the template table.
type Generator struct {
	source TemplateSource
}

func NewGenerator(source TemplateSource) *Generator {
	return &Generator{source: source}
}

// A4 in points.
const (
	pageWidth  = 595.28
	pageHeight = 841.89
)

// FillTemplate renders a fresh PDF from the template: every field key that is
// registered in the coordinate table and non-empty in fields is drawn at its
// position; signaturePNG and counterSignaturePNG, when supplied, are embedded
// at their registered boxes. Missing fields are skipped, never an error. The
// template bytes are never mutated. Identical input draws identical content
// (metadata dates are pinned, fields stamp in sorted key order); the raw byte
// stream is not canonical, because imported template resources serialize in
// dictionary order.
func (g *Generator) FillTemplate(ctx context.Context, templateID string, fields map[string]string, signaturePNG, counterSignaturePNG []byte) (out []byte, err error) {
	tpl, ok := LookupTemplate(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %q", ErrTemplateLoad, templateID)
	}

	tplBytes, err := g.source.Template(ctx, templateID)
	if err != nil {
		if errors.Is(err, ErrTemplateLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}

	// Validate images up front so a bad upload cannot half-render.
	if err := checkPNG(signaturePNG); err != nil {
		return nil, err
	}
	if err := checkPNG(counterSignaturePNG); err != nil {
		return nil, err
	}

	// The page importer panics on malformed PDFs rather than returning an
	// error; contain that here.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrTemplateLoad, r)
		}
	}()

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	// Fixed metadata dates keep the rendered content independent of the clock.
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetModificationDate(time.Unix(0, 0).UTC())

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(tplBytes))

	// Stable stamping order: fields sorted by key within each page.
	keys := make([]string, 0, len(tpl.Fields))
	for key := range tpl.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for page := 0; page < tpl.Pages; page++ {
		tplID := importer.ImportPageFromStream(pdf, &rs, page+1, "/MediaBox")
		pdf.AddPage()
		importer.UseImportedTemplate(pdf, tplID, 0, 0, pageWidth, pageHeight)

		pdf.SetTextColor(0, 0, 0)
		for _, key := range keys {
			pos := tpl.Fields[key]
			value := fields[key]
			if pos.Page != page || value == "" {
				continue
			}
			pdf.SetFont("Helvetica", "", pos.Size)
			pdf.Text(pos.X, pos.Y, value)
		}

		if len(counterSignaturePNG) > 0 && tpl.CounterSignatureBox.Page == page {
			embedPNG(pdf, "counter-signature", counterSignaturePNG, tpl.CounterSignatureBox)
		}
		if len(signaturePNG) > 0 && tpl.SignatureBox.Page == page {
			embedPNG(pdf, "client-signature", signaturePNG, tpl.SignatureBox)
		}
	}

	if pdf.Error() != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	return buf.Bytes(), nil
}

func checkPNG(img []byte) error {
	if len(img) == 0 {
		return nil
	}
	if _, err := png.DecodeConfig(bytes.NewReader(img)); err != nil {
		return fmt.Errorf("%w: %v", ErrImageEmbed, err)
	}
	return nil
}

func embedPNG(pdf *gofpdf.Fpdf, name string, img []byte, box ImageBox) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	pdf.ImageOptions(name, box.X, box.Y, box.W, box.H, false, opts, 0, "")
}
