package brandvoice

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/ledongthuc/pdf"
)

// MaxUploadSize bounds brand voice seed files.
const MaxUploadSize = 10 << 20

// ExtractText pulls plain text out of an uploaded .pdf, .docx or .txt file.
func ExtractText(filename string, r io.Reader) (string, error) {
	const op = "brandvoice.ExtractText"

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return "", apperr.Validation(op, "file must be 10MB or smaller")
	}

	var text string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = pdfText(data)
	case ".docx":
		text, err = docxText(data)
	case ".txt":
		text = string(data)
	default:
		return "", apperr.Validation(op, "upload a PDF, Word (.docx) or text file")
	}
	if err != nil {
		return "", apperr.Validation(op, "could not read %s: %v", filepath.Base(filename), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Validation(op, "no text found in %s", filepath.Base(filename))
	}
	return text, nil
}

// pdfText joins page text with newlines, page by page.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// docxText reads the text runs of word/document.xml, one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var b strings.Builder
	inText := false
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
