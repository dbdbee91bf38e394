package formatter

import (
	"bytes"

	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(conv entity.Conversation) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	heading := doc.AddParagraph()
	heading.SetStyle("Heading1")
	heading.AddRun().AddText(title(conv))

	for _, m := range conv.Messages {
		label := doc.AddParagraph().AddRun()
		label.Properties().SetBold(true)
		label.AddText(speaker(m.Role))

		doc.AddParagraph().AddRun().AddText(m.Content)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
