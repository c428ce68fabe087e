// Package renderer draws certificates as landscape A4 PDFs.
package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"volunteerhub/internal/certificate/models"
)

const (
	pageWidth  = 297.0
	pageHeight = 210.0
	margin     = 12.0

	generatedLayout = "02/01/2006 15:04:05 MST"
)

// PDF renders with gofpdf core fonts. Names are translated to cp1252 so
// common accented characters survive.
type PDF struct {
	loc      *time.Location
	compress bool
	title    string
}

type Option func(*PDF)

// WithLocation sets the zone dates are printed in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(p *PDF) { p.loc = loc }
}

// WithCompression toggles stream compression; tests turn it off to inspect text.
func WithCompression(on bool) Option {
	return func(p *PDF) { p.compress = on }
}

func WithTitle(title string) Option {
	return func(p *PDF) { p.title = title }
}

func New(opts ...Option) *PDF {
	p := &PDF{loc: time.UTC, compress: true, title: "Certificate of Appreciation"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PDF) Render(w io.Writer, c models.Certificate) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(p.compress)
	pdf.SetCreationDate(c.GeneratedAt)
	pdf.SetTitle(p.title, true)
	pdf.SetCreator("volunteerhub", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetDrawColor(32, 82, 149)
	pdf.SetLineWidth(1.5)
	pdf.Rect(margin, margin, pageWidth-2*margin, pageHeight-2*margin, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(margin+4, margin+4, pageWidth-2*margin-8, pageHeight-2*margin-8, "D")

	centered := func(y, size float64, style, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetXY(margin, y)
		pdf.CellFormat(pageWidth-2*margin, size*0.5, tr(text), "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(32, 82, 149)
	centered(40, 34, "B", p.title)
	pdf.SetTextColor(60, 60, 60)
	centered(66, 14, "", "This certificate is presented to")
	pdf.SetTextColor(0, 0, 0)
	centered(82, 28, "B", c.VolunteerName)
	pdf.SetTextColor(60, 60, 60)
	centered(104, 14, "", fmt.Sprintf("for contributing %s of volunteer service to", c.HoursPhrase()))
	pdf.SetTextColor(0, 0, 0)
	centered(118, 20, "B", c.OpportunityName)
	pdf.SetTextColor(60, 60, 60)
	centered(136, 14, "", c.DatePhrase(p.loc))

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetXY(margin+8, pageHeight-margin-14)
	pdf.CellFormat(pageWidth-2*margin-16, 5,
		"Generated "+c.GeneratedAt.In(p.loc).Format(generatedLayout), "", 0, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout certificate: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	return nil
}
