package formatter

import (
	"bytes"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	pdfFontName = "DejaVuSans"
	// PDF_FONT_PATH overrides the lookup; otherwise ./ttf next to the binary is tried.
	pdfFontEnv         = "PDF_FONT_PATH"
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

func resolveFontPath() string {
	for _, p := range []string{os.Getenv(pdfFontEnv), pdfFontRuntimePath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Format falls back to the built-in Helvetica when no UTF-8 font is available;
// non-Latin text then renders lossy.
func (pf *PDFFormatter) Format(conv entity.Conversation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title(conv), true)
	pdf.AddPage()

	fontName := "Helvetica"
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
	}

	pdf.SetFont(fontName, "B", 18)
	pdf.MultiCell(0, 9, title(conv), "", "", false)
	pdf.Ln(4)

	for _, m := range conv.Messages {
		pdf.SetFont(fontName, "B", 12)
		pdf.Cell(0, 7, speaker(m.Role))
		pdf.Ln(7)

		pdf.SetFont(fontName, "", 11)
		_, size := pdf.GetFontSize()
		pdf.MultiCell(0, size*1.5, m.Content, "", "", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
