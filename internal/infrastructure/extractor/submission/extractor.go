package submission

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/verisource/verisource/internal/core/domain"
	"github.com/verisource/verisource/internal/core/ports"
)

// Extractor decodes stored submissions into plain text. Dispatch is by
// file extension with the mime type as a fallback; anything that cannot
// be decoded is an unparseable submission, the one fatal pre-pipeline
// failure.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, sub *domain.Submission) (string, error) {
	reader, err := e.storage.Open(ctx, sub.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open stored submission: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read stored submission: %w", err)
	}

	var text string
	switch kind(sub) {
	case "pdf":
		text, err = extractPDF(raw)
	case "docx":
		text, err = extractDOCX(raw)
	default:
		text, err = extractPlain(raw)
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrUnparseableSubmission, "extract text", fmt.Errorf("%s: %w", sub.Filename, err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrUnparseableSubmission, "extract text", fmt.Errorf("%s: no extractable text", sub.Filename))
	}
	return text, nil
}

func kind(sub *domain.Submission) string {
	switch strings.ToLower(filepath.Ext(sub.Filename)) {
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	case ".txt", ".md", ".text":
		return "plain"
	}
	switch sub.MimeType {
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	}
	return "plain"
}

func extractPlain(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errors.New("not valid utf-8 text")
	}
	return string(raw), nil
}

func extractPDF(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", errors.New("no extractable text found in pdf")
	}
	return b.String(), nil
}

func extractDOCX(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx zip: %w", err)
	}

	var xmlData []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, openErr := f.Open()
			if openErr != nil {
				return "", fmt.Errorf("open document.xml: %w", openErr)
			}
			xmlData, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("read document.xml: %w", err)
			}
			break
		}
	}
	if len(xmlData) == 0 {
		return "", errors.New("word/document.xml not found")
	}

	decoder := xml.NewDecoder(bytes.NewReader(xmlData))
	var b strings.Builder
	inText := false
	for {
		tok, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}
		if tokenErr != nil {
			return "", fmt.Errorf("decode document.xml: %w", tokenErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
			if t.Name.Local == "p" && b.Len() > 0 {
				b.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.WriteString(string(t))
			}
		}
	}
	return b.String(), nil
}
