package invoice

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Issuer is the seller block printed on every invoice.
type Issuer struct {
	Name    string
	Address string
	GSTIN   string
	Email   string
	// SAC is the service accounting code for the course.
	SAC string
}

type Renderer struct {
	issuer Issuer
	title  font.Face
	body   font.Face
	small  font.Face
}

const (
	pageW  = 1240
	pageH  = 1754
	margin = 96.0
)

func NewRenderer(issuer Issuer) (*Renderer, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := func(size float64) font.Face {
		return truetype.NewFace(parsed, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}
	if strings.TrimSpace(issuer.SAC) == "" {
		issuer.SAC = "999293"
	}
	return &Renderer{issuer: issuer, title: face(44), body: face(24), small: face(18)}, nil
}

// Render draws inv as an A4-proportioned PNG.
func (r *Renderer) Render(inv Invoice) ([]byte, error) {
	dc := gg.NewContext(pageW, pageH)
	dc.SetColor(color.White)
	dc.Clear()

	ink := color.NRGBA{R: 0x1f, G: 0x23, B: 0x28, A: 0xff}
	muted := color.NRGBA{R: 0x6a, G: 0x73, B: 0x7d, A: 0xff}
	rule := color.NRGBA{R: 0xd0, G: 0xd7, B: 0xde, A: 0xff}

	y := margin + 20
	dc.SetColor(ink)
	dc.SetFontFace(r.title)
	heading := "TAX INVOICE"
	if inv.Kind == KindB2C {
		heading = "INVOICE"
	}
	dc.DrawString(heading, margin, y)
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored(inv.Number, pageW-margin, y, 1, 0)

	y += 60
	dc.SetFontFace(r.small)
	dc.SetColor(muted)
	for _, line := range r.issuerLines() {
		dc.DrawString(line, margin, y)
		y += 26
	}
	dc.DrawStringAnchored("Date: "+inv.Date.Format("02 Jan 2006"), pageW-margin, margin+80, 1, 0)

	y += 20
	y = hr(dc, rule, y)

	y += 40
	dc.SetColor(ink)
	dc.SetFontFace(r.body)
	dc.DrawString("Billed to", margin, y)
	y += 34
	dc.SetFontFace(r.small)
	for _, line := range billedTo(inv) {
		dc.DrawString(line, margin, y)
		y += 26
	}

	y += 20
	y = hr(dc, rule, y)
	y += 44

	rows := [][2]string{
		{"Description", "Amount (INR)"},
		{fmt.Sprintf("Online course access (SAC %s)", r.issuer.SAC), money(inv.BaseAmount)},
		{"CGST @ 9%", money(inv.CGST)},
		{"SGST @ 9%", money(inv.SGST)},
	}
	for i, row := range rows {
		if i == 0 {
			dc.SetFontFace(r.body)
		} else {
			dc.SetFontFace(r.small)
		}
		dc.DrawString(row[0], margin, y)
		dc.DrawStringAnchored(row[1], pageW-margin, y, 1, 0)
		y += 40
	}

	y = hr(dc, rule, y)
	y += 48
	dc.SetFontFace(r.body)
	dc.DrawString("Total (incl. GST)", margin, y)
	dc.DrawStringAnchored(money(inv.Amount), pageW-margin, y, 1, 0)

	if inv.PaymentID != "" {
		y += 48
		dc.SetFontFace(r.small)
		dc.SetColor(muted)
		dc.DrawString("Payment reference: "+inv.PaymentID, margin, y)
	}

	dc.SetFontFace(r.small)
	dc.SetColor(muted)
	dc.DrawStringAnchored("This is a computer generated invoice and does not require a signature.", pageW/2, pageH-margin, 0.5, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) issuerLines() []string {
	var out []string
	for _, s := range []string{r.issuer.Name, r.issuer.Address, gstinLine(r.issuer.GSTIN), r.issuer.Email} {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func gstinLine(gstin string) string {
	if strings.TrimSpace(gstin) == "" {
		return ""
	}
	return "GSTIN: " + gstin
}

func billedTo(inv Invoice) []string {
	var out []string
	if inv.CompanyName != "" {
		out = append(out, inv.CompanyName)
	}
	if inv.CustomerName != "" {
		out = append(out, inv.CustomerName)
	}
	if inv.CustomerEmail != "" {
		out = append(out, inv.CustomerEmail)
	}
	if inv.GSTNumber != "" {
		out = append(out, "GSTIN: "+inv.GSTNumber)
	}
	return out
}

func hr(dc *gg.Context, c color.Color, y float64) float64 {
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawLine(margin, y, pageW-margin, y)
	dc.Stroke()
	return y
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Filename is the attachment name for inv.
func Filename(inv Invoice) string {
	return inv.Number + ".png"
}
